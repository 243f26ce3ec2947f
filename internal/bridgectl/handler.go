// Package bridgectl is a command line client for the input bridge REST API.
package bridgectl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/larsks/inputbridge/internal/cli"
	"github.com/larsks/inputbridge/internal/input"
	"github.com/larsks/inputbridge/internal/mapping"
	"github.com/larsks/inputbridge/internal/version"
)

var ErrUsage = errors.New("usage")

// APIResponse represents the standard API response format
type APIResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type commandInfo struct {
	Tag       string   `json:"tag"`
	Operation string   `json:"operation"`
	Control   string   `json:"control"`
	Keys      []string `json:"keys"`
}

type deviceInfo struct {
	Handle       string `json:"handle"`
	Identifier   string `json:"identifier"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	State        string `json:"state"`
	Capabilities struct {
		ForceFeedback bool `json:"forceFeedback"`
	} `json:"capabilities"`
	Elements []string `json:"elements"`
}

type dispatchResult struct {
	Tag    string `json:"tag,omitempty"`
	Mapped bool   `json:"mapped"`
}

type effectList struct {
	Files []struct {
		DisplayName string `json:"displayName"`
		Path        string `json:"path"`
	} `json:"files"`
	Loaded []string `json:"loaded"`
}

type effectInfo struct {
	Path       string  `json:"path"`
	SampleRate int     `json:"sampleRate"`
	Samples    int     `json:"samples"`
	Seconds    float64 `json:"seconds"`
}

// HTTPClient interface for testing
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Handler runs one bridgectl command.
type Handler struct {
	config     *Config
	httpClient HTTPClient
	stdout     io.Writer
}

func NewHandler() *Handler {
	return &Handler{
		httpClient: &http.Client{},
		stdout:     os.Stdout,
	}
}

// NewHandlerWithClient is used by tests.
func NewHandlerWithClient(cfg *Config, client HTTPClient, stdout io.Writer) *Handler {
	return &Handler{config: cfg, httpClient: client, stdout: stdout}
}

// Start implements cli.CommandHandler.
func (h *Handler) Start(ctx context.Context, c cli.Configurable) error {
	cfg, ok := c.(*Config)
	if !ok {
		return fmt.Errorf("invalid config type %T", c)
	}
	h.config = cfg
	return h.Run(ctx, cfg.Args())
}

// Run executes the command named by args[0].
func (h *Handler) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		h.showHelp()
		return nil
	}

	command, args := args[0], args[1:]
	switch command {
	case "help":
		h.showHelp()
		return nil
	case "version":
		version.Write(h.stdout)
		return nil
	case "mappings":
		return h.cmdMappings(ctx, args)
	case "mapping":
		return h.cmdMapping(ctx, args)
	case "map":
		return h.cmdMap(ctx, args)
	case "unmap":
		return h.cmdUnmap(ctx, args)
	case "commands":
		return h.cmdCommands(ctx, args)
	case "clear":
		return h.cmdClear(ctx, args)
	case "dispatch":
		return h.cmdDispatch(ctx, args)
	case "effects":
		return h.cmdEffects(ctx, args)
	case "load-effect":
		return h.cmdLoadEffect(ctx, args)
	case "refresh-effects":
		return h.cmdRefreshEffects(ctx, args)
	case "devices":
		return h.cmdDevices(ctx, args)
	case "rumble":
		return h.cmdRumble(ctx, args)
	case "stop-rumble":
		return h.cmdStopRumble(ctx, args)
	case "state":
		return h.cmdState(ctx, args)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func (h *Handler) showHelp() {
	fmt.Fprintf(h.stdout, `bridgectl - Command line tool for the input bridge

Usage: bridgectl [flags] <command> [arguments]

Commands:
  mappings                               List all mappings
  mapping <key>                          Show one mapping
  map <key> <tag> [field=value ...]      Map an input to a command
  unmap <key>                            Remove a mapping
  commands                               List commands and their inputs
  clear <tag>                            Remove every mapping of a command
  dispatch <key> [pressed|released|N]    Inject an input event
  effects                                List effect files and loaded samples
  load-effect <path>                     Load an audio sample
  refresh-effects                        Reload every loaded sample
  devices                                List connected devices
  rumble <handle> [iterations|repeat]    Start force feedback on a device
  stop-rumble <handle>                   Stop force feedback on a device
  state                                  Show the emulated controller state
  help                                   Show this help
  version                                Show version information

Keys have the form device-code:element-code.

Flags:
  --config string       Config file to use (default "%s")
  --server-url string   API server URL (default "%s", or $%s)
  --version             Show version and exit
`, getDefaultConfigFile(), defaultServerURL, ServerURLEnv)
}

func requireArgs(name string, args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%w: %s takes %d argument(s)", ErrUsage, name, n)
	}
	return nil
}

func splitKey(key string) (string, string, error) {
	deviceCode, elementCode, ok := input.SplitKey(key)
	if !ok {
		return "", "", fmt.Errorf("%w: invalid key %q", ErrUsage, key)
	}
	return deviceCode, elementCode, nil
}

func (h *Handler) cmdMappings(ctx context.Context, args []string) error {
	if err := requireArgs("mappings", args, 0); err != nil {
		return err
	}
	var records []mapping.Record
	if err := h.call(ctx, http.MethodGet, "/mappings", nil, &records); err != nil {
		return err
	}

	fmt.Fprintf(h.stdout, "Mappings (%d total):\n", len(records))
	for _, r := range records {
		h.printRecord(r)
	}
	return nil
}

func (h *Handler) printRecord(r mapping.Record) {
	var flags []string
	for _, f := range []struct {
		name string
		set  bool
	}{{"turbo", r.Turbo}, {"autohold", r.Autohold}, {"toggle", r.Toggle}, {"analog", r.AllowAnalog}} {
		if f.set {
			flags = append(flags, f.name)
		}
	}
	line := fmt.Sprintf("  %s -> %s", r.Key(), r.Tag)
	if len(flags) > 0 {
		line += " [" + strings.Join(flags, ",") + "]"
	}
	if r.AudioPath != "" {
		line += " (" + r.AudioPath + ")"
	}
	fmt.Fprintln(h.stdout, line)
}

func (h *Handler) cmdMapping(ctx context.Context, args []string) error {
	if err := requireArgs("mapping", args, 1); err != nil {
		return err
	}
	var r mapping.Record
	if err := h.call(ctx, http.MethodGet, "/mappings/"+url.PathEscape(args[0]), nil, &r); err != nil {
		return err
	}
	h.printRecord(r)
	return nil
}

func (h *Handler) cmdMap(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: map requires a key and a tag", ErrUsage)
	}
	deviceCode, elementCode, err := splitKey(args[0])
	if err != nil {
		return err
	}

	r := mapping.Record{DeviceCode: deviceCode, ElementCode: elementCode, Tag: args[1]}
	for _, kv := range args[2:] {
		field, value, ok := strings.Cut(kv, "=")
		if !ok {
			// bare names set boolean flags
			value = "true"
		}
		if err := r.Set(field, value); err != nil {
			return err
		}
	}

	if err := h.call(ctx, http.MethodPut, "/mappings/"+url.PathEscape(args[0]), r, nil); err != nil {
		return err
	}
	fmt.Fprintf(h.stdout, "Mapped %s to %s\n", args[0], args[1])
	return nil
}

func (h *Handler) cmdUnmap(ctx context.Context, args []string) error {
	if err := requireArgs("unmap", args, 1); err != nil {
		return err
	}
	if err := h.call(ctx, http.MethodDelete, "/mappings/"+url.PathEscape(args[0]), nil, nil); err != nil {
		return err
	}
	fmt.Fprintf(h.stdout, "Removed %s\n", args[0])
	return nil
}

func (h *Handler) cmdCommands(ctx context.Context, args []string) error {
	if err := requireArgs("commands", args, 0); err != nil {
		return err
	}
	var commands []commandInfo
	if err := h.call(ctx, http.MethodGet, "/commands", nil, &commands); err != nil {
		return err
	}
	for _, c := range commands {
		keys := "-"
		if len(c.Keys) > 0 {
			keys = strings.Join(c.Keys, ", ")
		}
		fmt.Fprintf(h.stdout, "  %-24s %-12s %s\n", c.Tag, c.Operation, keys)
	}
	return nil
}

func (h *Handler) cmdClear(ctx context.Context, args []string) error {
	if err := requireArgs("clear", args, 1); err != nil {
		return err
	}
	var removed []string
	if err := h.call(ctx, http.MethodDelete, "/commands/"+url.PathEscape(args[0])+"/mappings", nil, &removed); err != nil {
		return err
	}
	fmt.Fprintf(h.stdout, "Removed %d mapping(s) for %s\n", len(removed), args[0])
	return nil
}

func (h *Handler) cmdDispatch(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: dispatch requires a key and an optional state", ErrUsage)
	}
	deviceCode, elementCode, err := splitKey(args[0])
	if err != nil {
		return err
	}

	ev := input.Event{DeviceCode: deviceCode, ElementCode: elementCode, Kind: input.Digital, Pressed: true, Value: 1}
	if len(args) == 2 {
		switch args[1] {
		case "pressed":
		case "released":
			ev.Pressed, ev.Value = false, 0
		default:
			v, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("%w: invalid state %q", ErrUsage, args[1])
			}
			ev.Kind, ev.Value, ev.Pressed = input.Analog, v, v != 0
		}
	}

	var res dispatchResult
	if err := h.call(ctx, http.MethodPost, "/dispatch", ev, &res); err != nil {
		return err
	}
	if !res.Mapped {
		fmt.Fprintf(h.stdout, "%s is not mapped\n", args[0])
		return nil
	}
	fmt.Fprintf(h.stdout, "Dispatched %s to %s\n", args[0], res.Tag)
	return nil
}

func (h *Handler) cmdEffects(ctx context.Context, args []string) error {
	if err := requireArgs("effects", args, 0); err != nil {
		return err
	}
	var list effectList
	if err := h.call(ctx, http.MethodGet, "/effects", nil, &list); err != nil {
		return err
	}
	fmt.Fprintf(h.stdout, "Files (%d):\n", len(list.Files))
	for _, f := range list.Files {
		fmt.Fprintf(h.stdout, "  %s (%s)\n", f.DisplayName, f.Path)
	}
	fmt.Fprintf(h.stdout, "Loaded (%d):\n", len(list.Loaded))
	for _, p := range list.Loaded {
		fmt.Fprintf(h.stdout, "  %s\n", p)
	}
	return nil
}

func (h *Handler) cmdLoadEffect(ctx context.Context, args []string) error {
	if err := requireArgs("load-effect", args, 1); err != nil {
		return err
	}
	var info effectInfo
	if err := h.call(ctx, http.MethodPost, "/effects", map[string]string{"path": args[0]}, &info); err != nil {
		return err
	}
	fmt.Fprintf(h.stdout, "Loaded %s: %d samples at %d Hz (%.2fs)\n", info.Path, info.Samples, info.SampleRate, info.Seconds)
	return nil
}

func (h *Handler) cmdRefreshEffects(ctx context.Context, args []string) error {
	if err := requireArgs("refresh-effects", args, 0); err != nil {
		return err
	}
	var loaded []string
	if err := h.call(ctx, http.MethodPost, "/effects/refresh", nil, &loaded); err != nil {
		return err
	}
	fmt.Fprintf(h.stdout, "Refreshed %d sample(s)\n", len(loaded))
	return nil
}

func (h *Handler) cmdDevices(ctx context.Context, args []string) error {
	if err := requireArgs("devices", args, 0); err != nil {
		return err
	}
	var devices []deviceInfo
	if err := h.call(ctx, http.MethodGet, "/devices", nil, &devices); err != nil {
		return err
	}
	fmt.Fprintf(h.stdout, "Devices (%d total):\n", len(devices))
	for _, d := range devices {
		ff := ""
		if d.Capabilities.ForceFeedback {
			ff = " [rumble]"
		}
		fmt.Fprintf(h.stdout, "  %s %s %q (%s, %s)%s\n", d.Handle, d.Code, d.Name, d.Identifier, d.State, ff)
		if len(d.Elements) > 0 {
			fmt.Fprintf(h.stdout, "    elements: %s\n", strings.Join(d.Elements, ", "))
		}
	}
	return nil
}

func (h *Handler) cmdRumble(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: rumble requires a handle and optional iterations", ErrUsage)
	}

	req := struct {
		Iterations uint32 `json:"iterations"`
		Repeat     bool   `json:"repeat,omitempty"`
	}{Iterations: 1}
	if len(args) == 2 {
		if args[1] == "repeat" {
			req.Repeat = true
		} else {
			n, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil || n == 0 {
				return fmt.Errorf("%w: invalid iterations %q", ErrUsage, args[1])
			}
			req.Iterations = uint32(n)
		}
	}

	if err := h.call(ctx, http.MethodPost, "/devices/"+args[0]+"/rumble", req, nil); err != nil {
		return err
	}
	fmt.Fprintf(h.stdout, "Rumble started on %s\n", args[0])
	return nil
}

func (h *Handler) cmdStopRumble(ctx context.Context, args []string) error {
	if err := requireArgs("stop-rumble", args, 1); err != nil {
		return err
	}
	if err := h.call(ctx, http.MethodDelete, "/devices/"+args[0]+"/rumble", nil, nil); err != nil {
		return err
	}
	fmt.Fprintf(h.stdout, "Rumble stopped on %s\n", args[0])
	return nil
}

func (h *Handler) cmdState(ctx context.Context, args []string) error {
	if err := requireArgs("state", args, 0); err != nil {
		return err
	}
	var state json.RawMessage
	if err := h.call(ctx, http.MethodGet, "/controller", nil, &state); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, state, "", "  "); err != nil {
		return fmt.Errorf("error parsing state: %w", err)
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(h.stdout)
	return err
}

// call sends body as JSON and decodes the response data into out when out
// is not nil.
func (h *Handler) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(h.config.ServerURL, "/")+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("API request failed with status %d", resp.StatusCode)
		}
		return fmt.Errorf("error parsing response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || apiResp.Status != "ok" {
		if apiResp.Message != "" {
			return fmt.Errorf("API error: %s", apiResp.Message)
		}
		return fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	if out != nil && len(apiResp.Data) > 0 {
		if err := json.Unmarshal(apiResp.Data, out); err != nil {
			return fmt.Errorf("error parsing response data: %w", err)
		}
	}
	return nil
}
