package main

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// newReminderCron registers run on a standard five-field cron spec.
// Runs never overlap: a slow Telegram send delays the next tick instead.
func newReminderCron(spec string, run func()) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, run); err != nil {
		return nil, fmt.Errorf("invalid REMINDER_SCHEDULE %q: %w", spec, err)
	}
	return c, nil
}
