package restic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/jgwest/restic-runner/model"
	"github.com/rs/zerolog/log"
)

// snapshotGroup is one entry of 'restic snapshots --group-by path --json'.
type snapshotGroup struct {
	GroupKey struct {
		Paths []string `json:"paths"`
	} `json:"group_key"`
	Snapshots []struct {
		ID   string    `json:"short_id"`
		Time time.Time `json:"time"`
	} `json:"snapshots"`
}

// Verify checks repository consistency on a subset of the pack data, then requires each
// backed up path group to have enough snapshots within the verification window.
func (r ResticBackend) Verify(ctx context.Context, paths model.TargetPaths) error {

	descriptor, err := extractAndValidateTarget(paths)
	if err != nil {
		return err
	}

	invocation, err := r.generateResticDirectInvocation(descriptor, paths)
	if err != nil {
		return err
	}

	settings := descriptor.VerifySettings()

	checkInvocation := withArgs(invocation, "check", "--read-data-subset="+settings.ReadDataSubset)
	if _, err := r.execute(ctx, "check", checkInvocation); err != nil {
		log.Error().Err(err).Msg("Repository consistency check failed")
		return err
	}
	log.Info().Msg("Repository consistency OK")

	snapshotsInvocation := withArgs(invocation, "snapshots", "--group-by", "path", "--tag", descriptor.EffectiveTag(), "--json")
	snapshotsInvocation.CaptureOutput = true

	result, err := r.execute(ctx, "snapshots", snapshotsInvocation)
	if err != nil {
		return err
	}

	groups := []snapshotGroup{}
	if err := json.Unmarshal(result.Stdout, &groups); err != nil {
		return fmt.Errorf("unable to parse snapshot list: %w", err)
	}

	return evaluateSnapshotGroups(groups, settings, r.now())
}

func evaluateSnapshotGroups(groups []snapshotGroup, settings model.VerifySettings, now time.Time) error {

	if len(groups) == 0 {
		log.Warn().Msg("No snapshots found, nothing to verify")
		return nil
	}

	stale := []string{}

	for _, group := range groups {
		groupName := strings.Join(group.GroupKey.Paths, " ")

		recent := 0
		var latest time.Time
		for _, snapshot := range group.Snapshots {
			if now.Sub(snapshot.Time) < settings.Window {
				recent++
			}
			if snapshot.Time.After(latest) {
				latest = snapshot.Time
			}
		}

		event := log.Info()
		if recent < settings.MinSnapshots {
			event = log.Error()
			stale = append(stale, groupName)
		}

		lastSeen := "never"
		if !latest.IsZero() {
			lastSeen = humanize.RelTime(latest, now, "ago", "from now")
		}

		event.Str("group", groupName).
			Int("recent", recent).
			Int("required", settings.MinSnapshots).
			Str("window", settings.Window.String()).
			Str("latest", lastSeen).
			Msg("Snapshot count in window")
	}

	if len(stale) > 0 {
		return &model.StaleSnapshotsError{Groups: stale}
	}

	return nil
}
