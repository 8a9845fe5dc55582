package out

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	writerrpc "scrollkitty/internal/modules/narrative/adapter/out/rpc"
	"scrollkitty/internal/modules/narrative/domain"
	narrativeout "scrollkitty/internal/modules/narrative/port/out"
	apperrors "scrollkitty/internal/platform/errors"
)

const (
	defaultStartTimeout = 3 * time.Second
	defaultCallTimeout  = 5 * time.Second
)

// PluginWriter runs a writer binary per call over go-plugin gRPC.
type PluginWriter struct {
	binary string
	output io.Writer
}

// NewPluginWriter returns a writer for binary. Plugin logs go to output, or are
// discarded when output is nil.
func NewPluginWriter(binary string, output io.Writer) narrativeout.Writer {
	if output == nil {
		output = io.Discard
	}
	return &PluginWriter{binary: strings.TrimSpace(binary), output: output}
}

func (w *PluginWriter) Info(ctx context.Context) (domain.WriterInfo, error) {
	client, closeFn, err := w.connect()
	if err != nil {
		return domain.WriterInfo{}, err
	}
	defer closeFn()

	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	meta, err := client.GetMetadata(callCtx)
	if err != nil {
		return domain.WriterInfo{}, fmt.Errorf("get writer metadata: %w", err)
	}
	return domain.WriterInfo{Name: meta.Name, Version: meta.Version}, nil
}

func (w *PluginWriter) Write(ctx context.Context, request domain.WriteRequest) (string, error) {
	client, closeFn, err := w.connect()
	if err != nil {
		return "", err
	}
	defer closeFn()

	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	response, err := client.Write(callCtx, ToRPCRequest(request))
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("write narrative: %w", callCtx.Err())
		}
		return "", fmt.Errorf("write narrative: %w", err)
	}
	return strings.TrimSpace(response.Text), nil
}

// ToRPCRequest converts a write request to its wire form.
func ToRPCRequest(r domain.WriteRequest) *writerrpc.WriteRequest {
	return &writerrpc.WriteRequest{
		Trigger:       r.Trigger,
		Band:          r.Band,
		Health:        int32(r.Health),
		DayPart:       r.DayPart,
		LimitStatus:   r.LimitStatus,
		Used:          r.Used,
		Limit:         r.Limit,
		OverBy:        r.OverBy,
		UnderBy:       r.UnderBy,
		Grants:        int32(r.Grants),
		FirstUse:      r.FirstUse,
		LastUse:       r.LastUse,
		TerminalTime:  r.TerminalTime,
		Avoid:         r.Avoid,
		VariationSeed: r.VariationSeed,
		Attempt:       int32(r.Attempt),
	}
}

func (w *PluginWriter) connect() (writerrpc.WriterClient, func(), error) {
	if w.binary == "" {
		return nil, nil, apperrors.ErrWriterNotEnabled
	}
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  writerrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          writerrpc.PluginMap(nil),
		Cmd:              exec.Command(w.binary),
		Managed:          true,
		StartTimeout:     defaultStartTimeout,
		Logger:           hclog.New(&hclog.LoggerOptions{Name: "writer", Output: w.output, Level: hclog.Warn}),
	})
	closeFn := func() { client.Kill() }

	rpcClient, err := client.Client()
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("start writer plugin: %w", err)
	}
	raw, err := rpcClient.Dispense(writerrpc.PluginMapKey)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("dispense writer plugin: %w", err)
	}
	typed, ok := raw.(writerrpc.WriterClient)
	if !ok {
		closeFn()
		return nil, nil, fmt.Errorf("writer rpc client type mismatch")
	}
	return typed, closeFn, nil
}

func callContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
