package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridengine/internal/config"
	"github.com/matzehuels/gridengine/pkg/broadcast"
	gerrors "github.com/matzehuels/gridengine/pkg/errors"
)

// watchCommand prints change events published to Redis.
func (c *CLI) watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [layout]",
		Short: "Follow layout changes published to Redis",
		Long: `Follow layout changes published by serve or play --save when the
broadcast backend is redis. Without an argument every layout is watched.`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, prefix string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return c.completeLayouts(cmd, args, prefix)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			layout := "*"
			if len(args) == 1 {
				layout = args[0]
			}
			err := c.runWatch(cmd.Context(), layout)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func (c *CLI) runWatch(ctx context.Context, layout string) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	if cfg.Broadcast.Backend != config.BroadcastRedis {
		return gerrors.New(gerrors.ErrCodeUnsupported,
			"watch needs [broadcast] backend = \"redis\" (configured: %q)", cfg.Broadcast.Backend)
	}

	client, err := c.redisClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	pub := broadcast.NewRedisPublisher(client, cfg.Broadcast.Channel)
	events, err := pub.Subscribe(ctx, layout, c.Logger)
	if err != nil {
		return err
	}
	c.printInfo("Watching %s", StyleValue.Render(pub.Channel(layout)))

	for ev := range events {
		fmt.Fprintf(c.stdout(), "%s %s\n",
			StyleDim.Render(ev.Time.Local().Format("15:04:05.000")),
			itemStyle(ev.Layout).Render(ev.Layout))
		for _, ch := range ev.Changes {
			c.printDetail("%s", ch)
		}
	}
	return ctx.Err()
}
