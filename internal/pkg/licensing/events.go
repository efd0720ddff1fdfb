package licensing

import (
	"github.com/gofiber/fiber/v2/log"

	"github.com/FlorianSchwab/GuildKeeper/app/models"
)

// Event is a lifecycle notification emitted after a successful transition.
// Delivery is fire-and-forget: a sink failure never rolls back the mutation.
type Event interface {
	EventName() string
}

// LicenseAssigned is emitted when a parked license is bound to a guild.
type LicenseAssigned struct {
	License *models.License
	Guild   *models.Guild
}

func (LicenseAssigned) EventName() string { return "license.assigned" }

// LicenseTransferred is emitted when an active license moves to another guild.
type LicenseTransferred struct {
	License       *models.License
	NewGuild      *models.Guild
	PreviousGuild *models.Guild
}

func (LicenseTransferred) EventName() string { return "license.transferred" }

// LicenseParked is emitted when a license is unassigned from its guild.
type LicenseParked struct {
	License       *models.License
	PreviousGuild *models.Guild
}

func (LicenseParked) EventName() string { return "license.parked" }

// EventSink receives lifecycle events for external collaborators such as
// audit logging or billing adjustments.
type EventSink interface {
	Publish(event Event)
}

// LogSink writes lifecycle events to the application log. It is the default
// sink when no other collaborator is wired in.
type LogSink struct{}

func (LogSink) Publish(event Event) {
	switch e := event.(type) {
	case LicenseAssigned:
		log.Infof("[Licensing] %s license=%d guild=%d", e.EventName(), e.License.ID, e.Guild.ID)
	case LicenseTransferred:
		prev := uint(0)
		if e.PreviousGuild != nil {
			prev = e.PreviousGuild.ID
		}
		log.Infof("[Licensing] %s license=%d guild=%d previous=%d", e.EventName(), e.License.ID, e.NewGuild.ID, prev)
	case LicenseParked:
		prev := uint(0)
		if e.PreviousGuild != nil {
			prev = e.PreviousGuild.ID
		}
		log.Infof("[Licensing] %s license=%d previous=%d", e.EventName(), e.License.ID, prev)
	default:
		log.Infof("[Licensing] %s", event.EventName())
	}
}
