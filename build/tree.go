package build

import (
	"context"
	"errors"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"twc/css"
	"twc/state"
	"twc/utils/debug"
)

// Tree is the "tree" command: prints node tree of a stylesheet, processed
// unless raw output is requested.
func Tree(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("tree")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many sources", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	var sheet *css.Stylesheet
	if cmd.Bool("raw") {
		data, err := os.ReadFile(src)
		if err != nil {
			return fmt.Errorf("unable to read source: %w", err)
		}
		sheet = css.NewParser(log).Parse(data, src)
	} else {
		b, err := newBuilder(env, &env.Cfg.Build, cmd.String("design"), "", log)
		if err != nil {
			return err
		}
		res, err := b.process(ctx, src)
		if err != nil {
			return err
		}
		sheet = res.Sheet
	}

	dump := debug.Stylesheet(sheet)
	env.Rpt.StoreData("tree.txt", []byte(dump))
	_, err := fmt.Fprint(os.Stdout, dump)
	return err
}
