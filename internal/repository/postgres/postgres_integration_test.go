//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aapm/scce/internal/entity"
	"github.com/aapm/scce/internal/repository"
)

// postgresTestHelper spins up a disposable postgres:15-alpine container and
// applies the schema, letting the repository tests run against a real
// driver/database instead of the in-memory fakes in internal/repository/memory.
type postgresTestHelper struct {
	db        *sql.DB
	container testcontainers.Container
	ctx       context.Context
}

func newPostgresTestHelper(ctx context.Context, t *testing.T) *postgresTestHelper {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "scce_test",
			"POSTGRES_PASSWORD": "scce_test",
			"POSTGRES_DB":       "scce_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=scce_test password=scce_test dbname=scce_test sslmode=disable",
		host, port.Port())

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	require.NoError(t, db.PingContext(ctx))
	require.NoError(t, createTestSchema(ctx, db))

	return &postgresTestHelper{db: db, container: container, ctx: ctx}
}

func (h *postgresTestHelper) Close(t *testing.T) {
	t.Helper()
	if err := h.db.Close(); err != nil {
		t.Logf("closing test db: %v", err)
	}
	if err := h.container.Terminate(h.ctx); err != nil {
		t.Logf("terminating test container: %v", err)
	}
}

// createTestSchema creates the tables the repository package issues
// queries against, mirroring the columns referenced in person.go,
// block.go, rotation_template.go, assignment.go, absence.go, preload.go
// and swap.go.
func createTestSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS persons (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		pgy_level INT,
		email TEXT NOT NULL UNIQUE,
		specialties TEXT[] NOT NULL DEFAULT '{}',
		faculty_role TEXT NOT NULL DEFAULT '',
		min_clinic_half_days INT NOT NULL DEFAULT 0,
		max_clinic_half_days INT NOT NULL DEFAULT 0,
		admin_type TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS blocks (
		id UUID PRIMARY KEY,
		date DATE NOT NULL,
		time_of_day TEXT NOT NULL,
		block_number INT NOT NULL,
		is_weekend BOOLEAN NOT NULL,
		is_holiday BOOLEAN NOT NULL,
		holiday_name TEXT
	);

	CREATE TABLE IF NOT EXISTS rotation_templates (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		abbreviation TEXT NOT NULL,
		activity_type TEXT NOT NULL,
		allowed_person_types TEXT[] NOT NULL DEFAULT '{}',
		min_pgy_level INT,
		max_pgy_level INT,
		required_specialties TEXT[] NOT NULL DEFAULT '{}',
		time_of_day TEXT,
		counts_toward_physical_capacity BOOLEAN NOT NULL DEFAULT true,
		max_residents INT NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS assignments (
		id UUID PRIMARY KEY,
		block_id UUID NOT NULL REFERENCES blocks(id),
		person_id UUID NOT NULL REFERENCES persons(id),
		rotation_template_id UUID REFERENCES rotation_templates(id),
		role TEXT NOT NULL,
		activity_override TEXT,
		notes TEXT NOT NULL DEFAULT '',
		override_reason TEXT,
		override_acknowledged_at TIMESTAMPTZ,
		confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
		score DOUBLE PRECISION NOT NULL DEFAULT 0,
		source TEXT NOT NULL,
		created_by UUID,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS absences (
		id UUID PRIMARY KEY,
		person_id UUID NOT NULL REFERENCES persons(id),
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		absence_type TEXT NOT NULL,
		is_blocking BOOLEAN NOT NULL
	);

	CREATE TABLE IF NOT EXISTS inpatient_preloads (
		id UUID PRIMARY KEY,
		person_id UUID NOT NULL REFERENCES persons(id),
		rotation_type TEXT NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		fmit_week INT
	);

	CREATE TABLE IF NOT EXISTS resident_call_preloads (
		id UUID PRIMARY KEY,
		person_id UUID NOT NULL REFERENCES persons(id),
		call_date DATE NOT NULL,
		call_type TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS swap_records (
		id UUID PRIMARY KEY,
		source_person_id UUID NOT NULL REFERENCES persons(id),
		source_week DATE NOT NULL,
		target_person_id UUID REFERENCES persons(id),
		target_week DATE,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		preference_tags TEXT[] NOT NULL DEFAULT '{}'
	);
	`
	_, err := db.ExecContext(ctx, schema)
	return err
}

func (h *postgresTestHelper) clearTables(ctx context.Context, t *testing.T) {
	t.Helper()
	_, err := h.db.ExecContext(ctx, `TRUNCATE swap_records, resident_call_preloads, inpatient_preloads,
		absences, assignments, rotation_templates, blocks, persons CASCADE`)
	require.NoError(t, err)
}

// TestPersonRepository_CRUD exercises Create/GetByID/GetByEmail/Update/Delete
// against a live Postgres instance, the one path unit tests against
// internal/repository/memory can't cover: actual SQL, actual driver-level
// type conversion for the specialties array and nullable pgy_level.
func TestPersonRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	helper := newPostgresTestHelper(ctx, t)
	defer helper.Close(t)
	defer helper.clearTables(ctx, t)

	db := &DB{helper.db}
	repo := db.PersonRepository()

	pgy := 2
	p := &entity.Person{
		Name:                     "Jordan Ellis",
		Kind:                     entity.PersonKindResident,
		PGYLevel:                 &pgy,
		Email:                    "jordan.ellis@example.org",
		Specialties:              map[string]struct{}{"sports_medicine": {}},
		MinClinicHalfDaysPerWeek: 2,
		MaxClinicHalfDaysPerWeek: 4,
		AdminType:                entity.AdminTypeGME,
	}
	require.NoError(t, repo.Create(ctx, p))
	require.NotEqual(t, uuid.Nil, p.ID)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, p.Name, got.Name)
	require.Equal(t, p.Kind, got.Kind)
	require.Equal(t, *p.PGYLevel, *got.PGYLevel)
	require.Contains(t, got.Specialties, "sports_medicine")

	byEmail, err := repo.GetByEmail(ctx, p.Email)
	require.NoError(t, err)
	require.Equal(t, p.ID, byEmail.ID)

	got.MaxClinicHalfDaysPerWeek = 6
	require.NoError(t, repo.Update(ctx, got))

	updated, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 6, updated.MaxClinicHalfDaysPerWeek)

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err = repo.GetByID(ctx, p.ID)
	require.Error(t, err)
}

// TestBlockAndAssignmentRepository_CRUD exercises the blocks/assignments
// join path, including the rotation_template_id foreign key.
func TestBlockAndAssignmentRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	helper := newPostgresTestHelper(ctx, t)
	defer helper.Close(t)
	defer helper.clearTables(ctx, t)

	db := &DB{helper.db}

	pgy := 1
	person := &entity.Person{Name: "Casey Nguyen", Kind: entity.PersonKindResident, PGYLevel: &pgy, Email: "casey.nguyen@example.org"}
	require.NoError(t, db.PersonRepository().Create(ctx, person))

	tmpl := &entity.RotationTemplate{
		Name:                         "Continuity Clinic",
		Abbreviation:                 "C",
		ActivityType:                 entity.ActivityClinic,
		AllowedPersonTypes:           []entity.PersonKind{entity.PersonKindResident},
		CountsTowardPhysicalCapacity: true,
	}
	require.NoError(t, db.RotationTemplateRepository().Create(ctx, tmpl))

	block := &entity.Block{
		Date:        time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
		TimeOfDay:   entity.AM,
		BlockNumber: 6,
	}
	require.NoError(t, db.BlockRepository().Create(ctx, block))

	assignment := &entity.Assignment{
		BlockID:            block.ID,
		PersonID:           person.ID,
		RotationTemplateID: &tmpl.ID,
		Role:               entity.RolePrimary,
		Source:             entity.SourceManual,
	}
	require.NoError(t, db.AssignmentRepository().Create(ctx, assignment))

	period := repository.Period{
		Start: block.Date.AddDate(0, 0, -1),
		End:   block.Date.AddDate(0, 0, 1),
	}
	data, err := db.LoadPeriod(ctx, period)
	require.NoError(t, err)
	require.Len(t, data.Assignments, 1)
	require.Equal(t, person.ID, data.Assignments[0].PersonID)
}
