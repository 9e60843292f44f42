package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alisacorporation/voice2clip/internal/audio"
)

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available audio capture devices",
		RunE: func(cmd *cobra.Command, _ []string) error {
			devices, err := audio.NewCapture().Devices()
			if err != nil {
				return err
			}

			fmt.Println("Available audio devices:")
			for _, device := range devices {
				marker := " "
				if device.MaxInputChannels > 0 {
					marker = "*"
				}
				fmt.Printf("%s %3d: %s (in=%d out=%d, %.0f Hz)\n",
					marker, device.Index, device.Name,
					device.MaxInputChannels, device.MaxOutputChannels,
					device.DefaultSampleRate)
			}
			fmt.Println("* marks devices with input channels")
			return nil
		},
	}
}
