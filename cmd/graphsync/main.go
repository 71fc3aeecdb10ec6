package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/clinect/clinect-backend/internal/app"
	"github.com/clinect/clinect-backend/internal/platform/envutil"
)

// graphsync re-projects every cached trial document and every account row
// into the graph. Run it after wiping the graph database or after enabling
// neo4j on an instance that already has a warm cache.
func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	log := a.Log.With("cmd", "graphsync")

	if !a.Clients.Graph.Available() {
		log.Error("Neo4j not configured, nothing to sync")
		os.Exit(1)
	}

	timeout := envutil.Duration("GRAPHSYNC_TIMEOUT", 10*time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	trialStats, err := a.Services.Projector.SyncAll(ctx)
	if err != nil {
		log.Error("Trial sync failed", "error", err)
		os.Exit(1)
	}
	log.Info("Trial sync complete",
		"trials", trialStats.Trials,
		"conditions", trialStats.Conditions,
		"locations", trialStats.Locations,
		"relationships", trialStats.Relationships,
		"errors", trialStats.Errors,
	)

	if a.Services.PatientSync == nil {
		log.Warn("Postgres not configured, skipping patient sync")
		return
	}

	patientStats, err := a.Services.PatientSync.SyncAll(ctx)
	if err != nil {
		log.Error("Patient sync failed", "error", err)
		os.Exit(1)
	}
	log.Info("Patient sync complete",
		"patients", patientStats.Patients,
		"condition_links", patientStats.ConditionLinks,
		"location_links", patientStats.LocationLinks,
		"saved_links", patientStats.SavedLinks,
		"errors", patientStats.Errors,
	)
}
