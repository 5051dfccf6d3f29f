package gateway

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/musher-dev/clawdash/internal/extract"
	"github.com/musher-dev/clawdash/internal/model"
	"github.com/musher-dev/clawdash/internal/observability"
)

const opStatus = "gateway.status"

type wireStatus struct {
	Running  optBool         `json:"running"`
	PID      optInt          `json:"pid"`
	Uptime   optString       `json:"uptime"`
	UptimeMs optInt          `json:"uptimeMs"`
	Gateway  json.RawMessage `json:"gateway"`
}

// Status reports gateway liveness. It asks the CLI first, then scans the
// process table, and otherwise reports not running. It never fails.
func (c *Client) Status(ctx context.Context) model.GatewayStatus {
	logger := observability.FromContext(ctx)

	status, err := c.statusFromCLI(ctx)
	if err == nil {
		return status
	}

	logger.Debug("gateway status command unavailable", slog.String("error", err.Error()))

	status, ok, err := c.statusFromProcessTable(ctx)
	if err != nil {
		logger.Debug("process table scan failed", slog.String("error", err.Error()))
	}

	if ok {
		return status
	}

	return model.GatewayStatus{Running: false, Source: model.StatusSourceNone}
}

func (c *Client) statusFromCLI(ctx context.Context) (model.GatewayStatus, error) {
	result, err := c.run(ctx, opStatus, c.opts.StatusTimeout, "gateway", "status", "--json")
	if err != nil {
		return model.GatewayStatus{}, err
	}

	var w wireStatus
	if err := extract.Into(result.Stdout, &w); err != nil {
		return model.GatewayStatus{}, err
	}

	// Some versions nest the fields under "gateway".
	if len(bytes.TrimSpace(w.Gateway)) > 0 && w.Gateway[0] == '{' {
		var nested wireStatus
		if err := json.Unmarshal(w.Gateway, &nested); err == nil {
			w = nested
		}
	}

	status := model.GatewayStatus{
		Running: w.Running.or(true),
		Uptime:  string(w.Uptime),
		Source:  model.StatusSourceCommand,
	}

	if w.PID.set && w.PID.value > 0 {
		status.PID = int(w.PID.value)
	}

	if status.Uptime == "" && w.UptimeMs.set && w.UptimeMs.value > 0 {
		status.Uptime = FormatUptime(time.Duration(w.UptimeMs.value) * time.Millisecond)
	}

	return status, nil
}

// statusFromProcessTable looks for the gateway in "ps -eo pid=,etime=,args=".
func (c *Client) statusFromProcessTable(ctx context.Context) (model.GatewayStatus, bool, error) {
	result, err := c.exec(ctx, opStatus, c.opts.StatusTimeout, "ps", "-eo", "pid=,etime=,args=")
	if err != nil {
		return model.GatewayStatus{}, false, err
	}

	pid, etime, ok := findProcess(result.Stdout, c.opts.ProcessName, c.opts.SelfPID)
	if !ok {
		return model.GatewayStatus{}, false, nil
	}

	return model.GatewayStatus{
		Running: true,
		PID:     pid,
		Uptime:  etime,
		Source:  model.StatusSourceProcessTable,
	}, true, nil
}

// findProcess returns the first process whose command line mentions name.
// Lines for grep and for selfPID are skipped.
func findProcess(table []byte, name string, selfPID int) (pid int, etime string, ok bool) {
	scanner := bufio.NewScanner(bytes.NewReader(table))

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}

		args := strings.Join(fields[2:], " ")
		if !strings.Contains(args, name) {
			continue
		}

		if fields[2] == "grep" || strings.HasSuffix(fields[2], "/grep") {
			continue
		}

		n, err := strconv.Atoi(fields[0])
		if err != nil || n <= 0 || n == selfPID {
			continue
		}

		return n, fields[1], true
	}

	return 0, "", false
}

// FormatUptime renders d the way ps renders elapsed time: [[dd-]hh:]mm:ss.
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	total := int64(d / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	switch {
	case days > 0:
		return strconv.FormatInt(days, 10) + "-" + pad2(hours) + ":" + pad2(minutes) + ":" + pad2(seconds)
	case hours > 0:
		return pad2(hours) + ":" + pad2(minutes) + ":" + pad2(seconds)
	default:
		return pad2(minutes) + ":" + pad2(seconds)
	}
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}

	return strconv.FormatInt(n, 10)
}
