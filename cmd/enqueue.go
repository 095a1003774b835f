package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/PercyRoc/CangFenBao-sub014/config"
	"github.com/PercyRoc/CangFenBao-sub014/infra/mqtt"
)

var (
	enqueueID    string
	enqueueChute int
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Inject a test package identification event",
	Long: `Publishes a single identification event on the packages topic, as the
camera/scanner collaborator would. Useful for commissioning a line
without the camera subsystem running.`,
	RunE: enqueuePackage,
}

func init() {
	enqueueCmd.Flags().StringVar(&enqueueID, "id", "", "package id (random when empty)")
	enqueueCmd.Flags().IntVar(&enqueueChute, "chute", 0, "target chute")
	_ = enqueueCmd.MarkFlagRequired("chute")
	rootCmd.AddCommand(enqueueCmd)
}

func enqueuePackage(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.MQTT.Broker == "" {
		return fmt.Errorf("no MQTT broker configured")
	}
	client, err := mqtt.NewPahoClient(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("mqtt client: %w", err)
	}
	defer client.Close()

	id := enqueueID
	if id == "" {
		id = uuid.NewString()
	}
	if err := client.PublishPackage(mqtt.PackageMessage{PackageID: id, Chute: enqueueChute}); err != nil {
		return fmt.Errorf("publish package: %w", err)
	}
	cmd.Printf("enqueued package %s for chute %d\n", id, enqueueChute)
	return nil
}
