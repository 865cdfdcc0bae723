// Package schedule runs configured ambient_turn_on requests on cron specs.
package schedule
