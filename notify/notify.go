package notify

import (
	"github.com/gen2brain/beeep"
	log "github.com/sirupsen/logrus"
)

// Done raises a desktop notification. Failures are logged and swallowed;
// notifying is best effort, e.g. on a headless box.
func Done(title string, message string) {
	if err := beeep.Notify(title, message, ""); err != nil {
		log.WithError(err).Debug("desktop notification failed")
	}
}
