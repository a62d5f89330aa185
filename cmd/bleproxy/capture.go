package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bft-labs/bleproxy/internal/adapters/capture"
	"github.com/bft-labs/bleproxy/internal/domain"
	"github.com/bft-labs/bleproxy/pkg/api"
)

func newCaptureCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Inspect frame capture files",
	}
	cmd.AddCommand(newCaptureViewCommand())
	return cmd
}

func newCaptureViewCommand() *cobra.Command {
	var (
		session   string
		direction string
		types     []uint
		raw       bool
		noColor   bool
	)

	cmd := &cobra.Command{
		Use:   "view <file>",
		Short: "Print the frames of a capture file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := capture.Filter{Session: session}
			switch direction {
			case "":
			case "in":
				d := domain.Inbound
				filter.Direction = &d
			case "out":
				d := domain.Outbound
				filter.Direction = &d
			default:
				return fmt.Errorf("direction must be in or out, got %q", direction)
			}
			for _, t := range types {
				filter.Types = append(filter.Types, uint16(t))
			}

			r, err := capture.Open(args[0], filter)
			if err != nil {
				return err
			}
			defer func() { _ = r.Close() }()

			v := newFrameViewer(cmd.OutOrStdout(), raw)
			if noColor {
				v.disableColor()
			}
			for {
				fr, err := r.Next()
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}
				v.print(fr)
			}
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "only frames of sessions with this ID prefix")
	cmd.Flags().StringVar(&direction, "direction", "", "only inbound (in) or outbound (out) frames")
	cmd.Flags().UintSliceVar(&types, "type", nil, "only these message type IDs")
	cmd.Flags().BoolVar(&raw, "raw", false, "print payload bytes instead of decoded messages")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}

type frameViewer struct {
	out io.Writer
	raw bool

	in     *color.Color
	outDir *color.Color
	name   *color.Color
	faint  *color.Color
	bad    *color.Color
}

func newFrameViewer(out io.Writer, raw bool) *frameViewer {
	return &frameViewer{
		out:    out,
		raw:    raw,
		in:     color.New(color.FgGreen),
		outDir: color.New(color.FgCyan),
		name:   color.New(color.Bold),
		faint:  color.New(color.Faint),
		bad:    color.New(color.FgRed),
	}
}

func (v *frameViewer) disableColor() {
	for _, c := range []*color.Color{v.in, v.outDir, v.name, v.faint, v.bad} {
		c.DisableColor()
	}
}

// print writes one line per frame:
//
//	15:04:05.000 3f1c2a9e in  HelloRequest {ClientInfo:aioesphomeapi}
func (v *frameViewer) print(fr domain.CapturedFrame) {
	dir := v.in.Sprint("in ")
	if fr.Direction == domain.Outbound {
		dir = v.outDir.Sprint("out")
	}
	session := fr.Session
	if len(session) > 8 {
		session = session[:8]
	}
	t := api.MessageType(fr.Type)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s %s ",
		v.faint.Sprint(fr.Time.Format("15:04:05.000")),
		session, dir, v.name.Sprint(t))

	switch {
	case v.raw || !t.Known():
		fmt.Fprintf(&b, "% x", fr.Payload)
	default:
		m, err := api.Decode(t, fr.Payload)
		if err != nil {
			b.WriteString(v.bad.Sprintf("decode error: %v", err))
		} else {
			fmt.Fprintf(&b, "%+v", m)
		}
	}
	fmt.Fprintln(v.out, b.String())
}
