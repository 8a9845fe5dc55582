package main

import (
	"context"
	"fmt"
	"strings"

	writerrpc "scrollkitty/internal/modules/narrative/adapter/out/rpc"

	"github.com/hashicorp/go-plugin"
)

type server struct{}

func (s *server) GetMetadata(_ context.Context, _ *writerrpc.Empty) (*writerrpc.Metadata, error) {
	return &writerrpc.Metadata{Name: "reference-writer", Version: "1.0.0"}, nil
}

func (s *server) Write(_ context.Context, in *writerrpc.WriteRequest) (*writerrpc.WriteResponse, error) {
	if in == nil || strings.TrimSpace(in.Trigger) == "" {
		return nil, fmt.Errorf("trigger is required")
	}
	return &writerrpc.WriteResponse{Text: compose(in)}, nil
}

// compose writes two plain sentences: one about the day, one about how the cat feels.
func compose(in *writerrpc.WriteRequest) string {
	return opening(in) + " " + feeling(in)
}

func opening(in *writerrpc.WriteRequest) string {
	used := in.Used
	if used == "" {
		used = "no time"
	}
	switch in.Trigger {
	case "welcome_once":
		return "Hi, I'm Scroll Kitty and I'll keep you company."
	case "daily_welcome":
		return fmt.Sprintf("Good %s, it's a brand new day.", greetingPart(in.DayPart))
	case "terminal":
		if in.TerminalTime != "" {
			return fmt.Sprintf("I ran out of energy at %s.", in.TerminalTime)
		}
		return "I ran out of energy for today."
	case "nightly":
		switch in.LimitStatus {
		case "past":
			return fmt.Sprintf("Today went %s over your limit.", in.OverBy)
		case "within":
			return fmt.Sprintf("You finished %s under your limit today.", in.UnderBy)
		}
		return fmt.Sprintf("You spent %s scrolling today.", used)
	default:
		return fmt.Sprintf("That makes %s of scrolling today.", used)
	}
}

func feeling(in *writerrpc.WriteRequest) string {
	// Alternate lines across retries so a rejected text is not sent back verbatim.
	alt := (in.VariationSeed + uint64(in.Attempt)) % 2
	switch in.Band {
	case "healthy":
		return pick(alt, "I feel bright and playful.", "My whiskers are twitching happily.")
	case "worn":
		return pick(alt, "I'm a little tired now.", "My paws feel a bit heavy.")
	case "struggling":
		return pick(alt, "I'm feeling pretty drained.", "It's getting hard to keep my eyes open.")
	case "critical":
		return pick(alt, "I'm hanging on by a whisker.", "Everything aches right now.")
	default:
		return pick(alt, "I'll be back tomorrow.", "See you in the morning.")
	}
}

func greetingPart(dayPart string) string {
	switch dayPart {
	case "morning", "afternoon", "evening":
		return dayPart
	default:
		return "day"
	}
}

func pick(alt uint64, a, b string) string {
	if alt == 0 {
		return a
	}
	return b
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: writerrpc.HandshakeConfig,
		Plugins:         writerrpc.PluginMap(&server{}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
