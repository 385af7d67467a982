package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image-compare/internal/loader"
	"image-compare/internal/preferences"
	"image-compare/internal/session"
	"image-compare/internal/storage"
	"image/png"
	"io"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"
)

const prompt = "> "

type shell struct {
	state       *session.State
	loader      *loader.Loader
	preferences *preferences.Store
	storage     storage.Storage
	out         io.Writer
	errOut      io.Writer
	done        bool
}

func (s *shell) run(ctx context.Context, scanner *bufio.Scanner) error {
	fmt.Fprint(s.out, prompt)
	for !s.done && scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil
		}

		args := strings.Fields(scanner.Text())
		if len(args) > 0 {
			if err := s.exec(ctx, args); err != nil {
				fmt.Fprintf(s.errOut, "error: %v\n", err)
			}
		}
		if !s.done {
			fmt.Fprint(s.out, prompt)
		}
	}
	if err := scanner.Err(); err != nil {
		return xerrors.Errorf("failed to read command: %w", err)
	}
	return nil
}

// exec builds a fresh command tree per line so flag state never leaks between commands.
func (s *shell) exec(ctx context.Context, args []string) error {
	cmd := s.commands()
	cmd.SetArgs(args)
	cmd.SetOut(s.out)
	cmd.SetErr(s.errOut)
	return cmd.ExecuteContext(ctx)
}

func (s *shell) commands() *cobra.Command {
	root := &cobra.Command{
		Use:           "compare-shell",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		&cobra.Command{
			Use:   "open <1|2> <source>",
			Short: "Load an image from a file, http(s) URL or s3:// URL into a slot",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				slot, err := parseSlot(args[0])
				if err != nil {
					return err
				}

				img, err := s.loader.Load(cmd.Context(), args[1])
				if err != nil {
					return err
				}
				if err := s.state.Load(slot, args[1], img); err != nil {
					return err
				}

				size := img.Bounds().Size()
				fmt.Fprintf(cmd.OutOrStdout(), "Image %d: %s (%dx%d)\n", slot, args[1], size.X, size.Y)
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear <1|2>",
			Short: "Remove the image in a slot",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				slot, err := parseSlot(args[0])
				if err != nil {
					return err
				}
				return s.state.Clear(slot)
			},
		},
		&cobra.Command{
			Use:   "background [color]",
			Short: "Show or set the diff background color",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if len(args) == 0 {
					c, ok := colorful.MakeColor(s.state.Background())
					if !ok {
						return xerrors.New("background color is transparent")
					}
					fmt.Fprintln(cmd.OutOrStdout(), c.Hex())
					return nil
				}

				c, err := preferences.ParseColor(args[0])
				if err != nil {
					return err
				}
				s.state.SetBackground(c)
				if err := s.preferences.SetBackground(cmd.Context(), c); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), c.Hex())
				return nil
			},
		},
		&cobra.Command{
			Use:   "compare",
			Short: "Compare the two loaded images",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				comparison, err := s.state.Compare()
				if err != nil {
					return err
				}
				if comparison.DiffErr != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "diff image unavailable: %v\n", comparison.DiffErr)
				}

				s.printCounts(cmd.OutOrStdout())
				return nil
			},
		},
		&cobra.Command{
			Use:   "save <key>",
			Short: "Store the full-size diff image as PNG",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				diff := s.state.Diff()
				if diff == nil {
					return session.ErrNoDiff
				}
				return s.put(cmd, args[0], diff)
			},
		},
		&cobra.Command{
			Use:   "preview <key>",
			Short: "Store the diff image scaled to the display size as PNG",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				preview, err := s.state.Preview()
				if err != nil {
					return err
				}
				return s.put(cmd, args[0], preview)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show loaded images and the last comparison",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				out := cmd.OutOrStdout()
				v := s.state.View()
				for i, source := range v.Sources {
					if !v.Loaded[i] {
						source = "(empty)"
					}
					fmt.Fprintf(out, "Image %d: %s\n", i+1, source)
				}
				if !v.DisplaySize.Eq(image.Point{}) {
					fmt.Fprintf(out, "Display: %dx%d\n", v.DisplaySize.X, v.DisplaySize.Y)
				}
				s.printCounts(out)
				return nil
			},
		},
		&cobra.Command{
			Use:     "quit",
			Aliases: []string{"exit"},
			Short:   "Leave the shell",
			Args:    cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				s.done = true
			},
		},
	)

	return root
}

func (s *shell) printCounts(out io.Writer) {
	v := s.state.View()
	fmt.Fprintf(out, "Different Pixels: %s  Total Pixels: %s\n", session.FormatCount(v.DifferentPixels), session.FormatCount(v.TotalPixels))
	if label := v.IdenticalLabel(); label != "" {
		fmt.Fprintln(out, label)
	}
}

func (s *shell) put(cmd *cobra.Command, key string, img image.Image) error {
	var buffer bytes.Buffer
	if err := png.Encode(&buffer, img); err != nil {
		return xerrors.Errorf("failed to encode diff image: %w", err)
	}

	url, err := s.storage.Put(cmd.Context(), key, buffer.Bytes())
	if err != nil {
		return xerrors.Errorf("failed to save diff image: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), url)
	return nil
}

func parseSlot(arg string) (session.Slot, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || (session.Slot(n) != session.First && session.Slot(n) != session.Second) {
		return 0, session.ErrInvalidSlot
	}
	return session.Slot(n), nil
}
