package daemon

import (
	"log/slog"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/blogpress/internal/logfields"
)

// job is one serialized unit of daemon work: build, then publish when
// publishing is configured.
type job struct {
	id      string
	trigger string
	branch  string // hosting branch override carried by the trigger payload
}

func newJob(trigger, branch string) job {
	return job{id: uuid.NewString(), trigger: trigger, branch: branch}
}

// Enqueue registers a build trigger. Rebuilds are idempotent, so a trigger
// arriving while another is still pending is coalesced into it; the returned
// bool reports whether this trigger became its own job.
func (d *Daemon) Enqueue(j job) bool {
	d.recorder.IncTrigger(j.trigger)
	select {
	case d.jobs <- j:
		slog.Info("Build trigger accepted",
			logfields.JobID(j.id),
			logfields.Trigger(j.trigger),
			logfields.Branch(j.branch))
		return true
	default:
		slog.Debug("Build already pending, trigger coalesced",
			logfields.JobID(j.id),
			logfields.Trigger(j.trigger))
		return false
	}
}
