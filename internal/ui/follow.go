package ui

import (
	"context"
	"fmt"
	"io"

	"github.com/nxadm/tail"
)

// Follow streams lines appended to path until ctx is canceled. With
// fromStart false it begins at the current end of the file.
func Follow(ctx context.Context, path string, fromStart bool, out io.Writer) error {
	cfg := tail.Config{
		Follow:    true, // keep following
		ReOpen:    true, // logrotate moves the file away
		MustExist: false,
		Logger:    tail.DiscardingLogger,
	}
	if !fromStart {
		cfg.Location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	}
	t, err := tail.TailFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to tail log: %w", err)
	}
	defer t.Cleanup()
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-t.Lines:
			if !ok || line == nil {
				return t.Err()
			}
			if line.Err != nil {
				return line.Err
			}
			fmt.Fprintln(out, line.Text)
		}
	}
}
