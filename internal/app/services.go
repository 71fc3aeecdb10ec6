package app

import (
	"gorm.io/gorm"

	"github.com/clinect/clinect-backend/internal/data/repos/accounts"
	"github.com/clinect/clinect-backend/internal/platform/logger"
	"github.com/clinect/clinect-backend/internal/services"
)

type Services struct {
	Projector   services.TrialProjector
	Match       services.MatchService
	Trials      services.TrialService
	Insights    services.InsightsService
	PatientSync services.PatientSyncService
}

func wireServices(log *logger.Logger, clients Clients, accountsDB *gorm.DB) Services {
	log.Info("Wiring services...")

	projector := services.NewTrialProjector(clients.Graph, clients.Cache, log)

	set := Services{
		Projector: projector,
		Match:     services.NewMatchService(clients.Graph, clients.Origin, clients.Cache, projector, log),
		Trials:    services.NewTrialService(clients.Origin, clients.Cache, projector, log),
		Insights:  services.NewInsightsService(clients.Graph, log),
	}

	if accountsDB != nil {
		histories := accounts.NewMedicalHistoryRepo(accountsDB, log)
		saved := accounts.NewSavedTrialRepo(accountsDB, log)
		set.PatientSync = services.NewPatientSyncService(accountsDB, histories, saved, clients.Graph, log)
	}

	return set
}
