package capability

import (
	"context"
	"fmt"
	"strings"

	"adbconn/internal/core"
	"adbconn/internal/platform"
	"adbconn/internal/process"
	"adbconn/util"
)

// releaseProp is read from the device to decide on exec-out.
const releaseProp = "getprop ro.build.version.release"

// Prober runs the construction-time probe.
type Prober struct {
	Spawner process.Spawner
	Binary  string
	Serial  string
	Profile platform.Profile
	Logger  *util.Logger
}

// Probe asks the client for its version and the device for its release.
// Only a failure to spawn the binary is an error; a device that does not
// answer just disables exec-out.
func (p *Prober) Probe(ctx context.Context) (Capabilities, error) {
	log := p.Logger
	if log == nil {
		log = util.Discard()
	}
	log = log.Named("probe")

	var caps Capabilities

	argv := core.Build(core.Request{Mode: core.Direct, Binary: p.Binary, Args: []string{"version"}})
	res, err := p.Spawner.Run(ctx, core.CaptureMode.Invocation(argv, p.Profile.Spawn))
	if err != nil {
		return caps, fmt.Errorf("probe adb client: %w", err)
	}
	if ver, ok := ParseClientVersion(string(p.Profile.Normalize(res.Stdout))); ok {
		caps.UsesCaptureMode = true
		caps.ClientVersion = ver
	} else {
		log.Warn("%s did not report an adb version; falling back to pipe mode", p.Binary)
	}

	argv = core.Build(core.Request{
		Mode:   core.Shell,
		Binary: p.Binary,
		Serial: p.Serial,
		Args:   []string{releaseProp},
	})
	strategy := core.StrategyFor(caps.UsesCaptureMode)
	res, err = p.Spawner.Run(ctx, strategy.Invocation(argv, p.Profile.Spawn))
	if err != nil {
		return caps, fmt.Errorf("probe device: %w", err)
	}

	release := strings.TrimSpace(string(p.Profile.Normalize(res.Stdout)))
	switch {
	case res.ExitCode != 0 || release == "":
		log.Warn("device did not report its release (exit status %d); exec-out disabled", res.ExitCode)
	default:
		caps.DeviceRelease = release
		caps.UsesExecOut = SupportsExecOut(caps.ClientVersion, release)
	}

	log.Verbose("capabilities: %s", caps)
	return caps, nil
}
