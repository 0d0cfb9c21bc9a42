package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edgard/sketchbot/internal/database"
	"github.com/edgard/sketchbot/internal/portrayal"
)

func newPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the portrayal prompt for a user without calling the model",
		Long: `Runs message selection and formatting against the database and prints
the rendered prompt. Without --stream every stream is searched.

Examples:
  sketchbot preview --user 123456789
  sketchbot preview --user 123456789 --stream 9f8e...`,
		RunE: runPreview,
	}

	cmd.Flags().String("user", "", "platform user id of the person to portray")
	cmd.Flags().String("stream", "", "restrict messages to this stream id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runPreview(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	userID, _ := cmd.Flags().GetString("user")
	streamID, _ := cmd.Flags().GetString("stream")

	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	settings, err := portrayal.NewSettings(rt.cfg)
	if err != nil {
		return err
	}
	dir := database.NewDirectory(rt.store, settings.Platform)
	command := portrayal.NewCommand(settings, portrayal.Deps{
		Messages: rt.store,
		Persons:  dir,
		Streams:  dir,
		Policy:   portrayal.NewPolicy(rt.cfg.Permissions),
		Texts:    rt.cfg.Messages,
		Logger:   rt.log,
	})

	target, err := portrayal.TargetForUser(ctx, dir, strings.TrimSpace(userID))
	if err != nil {
		return err
	}
	target.StreamID = strings.TrimSpace(streamID)

	prepared, err := command.Prepare(ctx, target)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# %s (%s): %d messages, %d from target, %d context\n\n",
		target.PersonName, target.UserID, prepared.MessageCount, prepared.TargetCount, prepared.OtherCount)
	fmt.Fprintln(out, prepared.Prompt)
	return nil
}
