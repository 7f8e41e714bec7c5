package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/appointments-planner/internal/application"
	"github.com/example/appointments-planner/internal/seed"
)

func (a *app) migrateCmd() *cobra.Command {
	var status bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Datenbankschema aktualisieren",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := a.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.close()

			if status {
				pending, err := rt.storage.PendingMigrations(cmd.Context())
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					fmt.Fprintln(a.stdout, "Keine ausstehenden Migrationen.")
					return nil
				}
				for _, m := range pending {
					fmt.Fprintf(a.stdout, "ausstehend: %s %s\n", m.Version, m.Description)
				}
				return nil
			}

			applied, err := rt.storage.MigrateWithReport(cmd.Context())
			if err != nil {
				return fmt.Errorf("Migration fehlgeschlagen: %w", err)
			}
			if len(applied) == 0 {
				fmt.Fprintln(a.stdout, "Datenbank ist aktuell.")
				return nil
			}
			for _, version := range applied {
				fmt.Fprintf(a.stdout, "angewendet: %s\n", version)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "nur ausstehende Migrationen auflisten")
	return cmd
}

func (a *app) seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Beispieldaten einspielen",
		Long:  "Legt Einrichtungen, Personen, Planungsperioden, Termine und Pläne an. Ohne --file werden die eingebauten Beispieldaten verwendet.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := loadSeed(file)
			if err != nil {
				return err
			}
			rt, err := a.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer rt.close()
			svc, err := newServices(rt)
			if err != nil {
				return err
			}

			report, err := seed.NewSeeder(seed.Services{
				Locations:    svc.locations,
				Persons:      svc.persons,
				PlanPeriods:  svc.periods,
				Appointments: svc.appointments,
				Plans:        svc.plans,
			}, rt.now, rt.logger).Apply(cmd.Context(), doc)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%d Einrichtungen, %d Personen, %d Planungsperioden, %d Termine und %d Pläne angelegt.\n",
				report.Locations, report.Persons, report.PlanPeriods, report.Appointments, report.Plans)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML-Datei mit Beispieldaten")
	return cmd
}

func loadSeed(path string) (seed.Document, error) {
	if path == "" {
		return seed.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return seed.Document{}, err
	}
	defer f.Close()
	return seed.Parse(f)
}

func (a *app) createAdminCmd() *cobra.Command {
	var input application.RegisterUserInput
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Administrator-Konto anlegen",
		Long:  "Legt ein Konto mit der Rolle admin an, sofern der Benutzername noch frei ist. --person-id verknüpft das Konto mit einer Person.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := a.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer rt.close()
			svc, err := newServices(rt)
			if err != nil {
				return err
			}

			user, created, err := svc.users.EnsureAdmin(cmd.Context(), input)
			if err != nil {
				return err
			}
			if !created {
				fmt.Fprintf(a.stdout, "Ein Benutzer mit dem Namen %q existiert bereits.\n", user.Username)
				return nil
			}
			fmt.Fprintf(a.stdout, "Admin-Benutzer %q angelegt.\n", user.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&input.Username, "username", "", "Benutzername (erforderlich)")
	cmd.Flags().StringVar(&input.Password, "password", "", "Passwort (erforderlich, mindestens 8 Zeichen)")
	cmd.Flags().StringVar(&input.PersonID, "person-id", "", "ID der zugehörigen Person")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
