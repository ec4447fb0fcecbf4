package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-appointment-ledger/internal/appointment"
	"github.com/hackgods/clinic-appointment-ledger/internal/config"
	"github.com/hackgods/clinic-appointment-ledger/internal/db"
	"github.com/hackgods/clinic-appointment-ledger/internal/logging"
	"github.com/hackgods/clinic-appointment-ledger/internal/patient"
)

func main() {
	patients := flag.Int("patients", 200, "number of patients to create")
	appointments := flag.Int("appointments", 500, "number of appointments to book")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("dev", "info", "seed")
		bootLogger.Fatal().Err(err).Msg("config load error")
	}

	logger := logging.New(cfg.Env, cfg.LogLevel, "seed")
	logger.Info().Int("patients", *patients).Int("appointments", *appointments).Msg("seed starting")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("apply schema")
	}

	gofakeit.Seed(time.Now().UnixNano())

	reg := patient.NewService(patient.NewPgStore(pool), logger.Level(zerolog.WarnLevel))
	seeded, err := seedPatients(context.Background(), logger, reg, *patients)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed patients")
	}

	// No sender: seeding must not text anyone.
	svc := appointment.NewService(appointment.NewPgStore(pool), nil, logger.Level(zerolog.WarnLevel))
	if err := seedAppointments(context.Background(), logger, svc, seeded, *appointments); err != nil {
		logger.Fatal().Err(err).Msg("seed appointments")
	}

	logger.Info().Msg("seed complete")
}

func seedPatients(ctx context.Context, logger zerolog.Logger, reg *patient.Service, count int) ([]patient.Patient, error) {
	logger.Info().Int("count", count).Msg("seeding patients")

	genders := []patient.Gender{patient.GenderMale, patient.GenderFemale, patient.GenderOther}
	out := make([]patient.Patient, 0, count)

	for i := 0; i < count; i++ {
		p, err := reg.RegisterPatient(ctx, patient.RegisterInput{
			Name:                   gofakeit.Name(),
			Email:                  gofakeit.Email(),
			Phone:                  "+49" + gofakeit.Numerify("17#########"),
			BirthDate:              gofakeit.DateRange(time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)),
			Gender:                 genders[gofakeit.Number(0, len(genders)-1)],
			Address:                gofakeit.Address().Address,
			Occupation:             gofakeit.JobTitle(),
			EmergencyContactName:   gofakeit.Name(),
			EmergencyContactNumber: "+49" + gofakeit.Numerify("17#########"),
			PrimaryPhysician:       gofakeit.FirstName() + " " + gofakeit.LastName(),
			InsuranceProvider:      gofakeit.Company(),
			InsurancePolicyNumber:  gofakeit.Numerify("POL-########"),
			TreatmentConsent:       true,
			DisclosureConsent:      true,
			PrivacyConsent:         true,
		})
		if err != nil {
			return nil, fmt.Errorf("register patient %d: %w", i, err)
		}
		out = append(out, *p)

		if (i+1)%100 == 0 {
			logger.Info().Msgf("patients seeded: %d/%d", i+1, count)
		}
	}

	return out, nil
}

// seedAppointments books count appointments, then schedules roughly half and
// cancels roughly a fifth so the dashboard has every status.
func seedAppointments(ctx context.Context, logger zerolog.Logger, svc *appointment.Service, patients []patient.Patient, count int) error {
	if len(patients) == 0 {
		return fmt.Errorf("no patients to book for")
	}
	logger.Info().Int("count", count).Msg("seeding appointments")

	for i := 0; i < count; i++ {
		p := patients[gofakeit.Number(0, len(patients)-1)]
		schedule := time.Now().Add(time.Duration(gofakeit.Number(1, 60*24)) * time.Hour).Truncate(15 * time.Minute)

		a, err := svc.CreateAppointment(ctx, appointment.CreateInput{
			PatientID:        p.ID,
			UserID:           p.UserID,
			PrimaryPhysician: p.PrimaryPhysician,
			Schedule:         schedule,
			Reason:           gofakeit.Sentence(6),
			Note:             gofakeit.RandomString([]string{"", "", "Prefers mornings", "Bring previous lab results"}),
		})
		if err != nil {
			return fmt.Errorf("create appointment %d: %w", i, err)
		}

		roll := gofakeit.Number(1, 10)
		switch {
		case roll <= 5:
			_, err = svc.UpdateAppointmentStatus(ctx, a.ID, p.UserID, appointment.Patch{}, appointment.TransitionSchedule)
		case roll <= 7:
			reason := gofakeit.RandomString([]string{"Patient unavailable", "Physician on leave", "Rebooked elsewhere"})
			_, err = svc.UpdateAppointmentStatus(ctx, a.ID, p.UserID, appointment.Patch{CancellationReason: &reason}, appointment.TransitionCancel)
		}
		if err != nil {
			return fmt.Errorf("transition appointment %s: %w", a.ID, err)
		}

		if (i+1)%100 == 0 {
			logger.Info().Msgf("appointments seeded: %d/%d", i+1, count)
		}
	}

	return nil
}
