package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"stemsplit/internal/config"
)

// Requirement defines an external dependency stemsplit relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Detail      string
}

// Requirements lists the binaries a separation run needs for cfg.
func Requirements(cfg *config.Config) []Requirement {
	reqs := make([]Requirement, 0, 2)
	if cfg.Separator.UseUVX {
		reqs = append(reqs, Requirement{
			Name:        "uvx",
			Command:     cfg.Separator.UVXCommand,
			Description: fmt.Sprintf("Runs %s without a local install", cfg.Separator.Package),
		})
	} else {
		reqs = append(reqs, Requirement{
			Name:        "audio-separator",
			Command:     cfg.Separator.Command,
			Description: "Splits songs into vocal and instrumental stems",
		})
	}
	reqs = append(reqs, Requirement{
		Name:        "FFmpeg",
		Command:     "ffmpeg",
		Description: "Decodes source audio for audio-separator",
	})
	return reqs
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the required statuses that are unavailable.
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}
