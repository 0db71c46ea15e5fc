package store

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	perrors "github.com/shopanalyser/backend/internal/errors"
	"github.com/shopanalyser/backend/pkg/bootstrap"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const skipIntegrationTests = "SHOPANALYSER_SKIP_INTEGRATION_TESTS"

// PgStoreSuite is a test suite for the PostgreSQL ProductStore implementation.
type PgStoreSuite struct {
	suite.Suite                             // Embedding testify suite for structured testing
	pgContainer *postgres.PostgresContainer // PostgreSQL container for integration tests
	dbPool      *pgxpool.Pool               // PostgreSQL connection pool for integration tests
	store       ProductStore                //
	logger      *slog.Logger                // Logger for the test suite
	ctx         context.Context             // Context for the test suite, used for cancellation and timeouts
}

// SetupSuite initializes the test suite by setting up a PostgreSQL container.
func (s *PgStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	dbName := "products_db"
	dbUser := "user"
	dbPassword := "password"

	// 1. Start a PostgreSQL container with the specified configuration. Wait for the container to be ready.
	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		// Wait for a specific log message indicating the database service is ready.
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
		// Ensure the container is ready to accept connections on the default PostgreSQL port.
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	// 2. Get the connection string from the container
	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")

	// 3. create a new pgxpool instance using the connection string
	s.dbPool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err, "Failed to create pgxpool")

	// 3.1 Ping the database to ensure the connection is established
	for i := range 10 {
		s.logger.Info("Pinging PostgreSQL database", "attempt", i+1)
		err = s.dbPool.Ping(s.ctx)
		if err == nil {
			break
		}
		time.Sleep(time.Second * 2)
	}
	require.NoError(s.T(), err, "Failed to connect to PostgreSQL after retries")

	// 4. Database migration
	wd, _ := os.Getwd()
	migrationsPath := filepath.Join(wd, "../../deploy/migrations")
	err = bootstrap.Migrate("file://"+migrationsPath, connStr)
	require.NoError(s.T(), err, "Failed to apply migrations")
	s.logger.Info("Migrations applied for integration tests")

	s.store = NewPgStore(s.dbPool)
	s.logger.Info("Initialization complete for PgStoreSuite")
}

// TearDownSuite cleans up resources after all tests in the suite have run.
func (s *PgStoreSuite) TearDownSuite() {
	s.logger.Info("Tearing down suite...")
	if s.dbPool != nil {
		s.dbPool.Close()
		s.logger.Info("DB pool closed.")
	}
	if s.pgContainer != nil {
		s.logger.Info("Terminating PostgreSQL container...")
		err := s.pgContainer.Terminate(s.ctx)
		if err != nil {
			s.logger.Warn("failed to terminate PostgreSQL container", "error", err)
		} else {
			s.logger.Info("PostgreSQL container terminated.")
		}
	}
}

// SetupTest prepares the database for each test by truncating the products table.
func (s *PgStoreSuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE products RESTART IDENTITY CASCADE")
	require.NoError(s.T(), err, "Failed to truncate products table")
}

func (s *PgStoreSuite) createProduct(name string) *Product {
	created, err := s.store.Create(s.ctx, Product{
		Name:          name,
		Category:      "Electronics",
		WholesaleCost: 8000,
		RetailCost:    15000,
		Stock:         45,
		Sold:          230,
		ProfitMargin:  Margin(8000, 15000),
		LastRestock:   "2024-01-15",
		ReorderPoint:  20,
	})
	require.NoError(s.T(), err, "Failed to create product")
	return created
}

func (s *PgStoreSuite) TestCreateAndFindByID() {
	// given
	created := s.createProduct("Phone Case")
	// when
	found, err := s.store.FindByID(s.ctx, created.ID)
	// then
	require.NoError(s.T(), err)
	assert.Equal(s.T(), created, found)
}

func (s *PgStoreSuite) TestFindByID_NotFound() {
	found, err := s.store.FindByID(s.ctx, 99)
	assert.ErrorIs(s.T(), err, perrors.ErrProductNotFound)
	assert.Nil(s.T(), found)
}

func (s *PgStoreSuite) TestList() {
	// given
	first := s.createProduct("Phone Case")
	second := s.createProduct("Soap Bar")
	// when
	list, err := s.store.List(s.ctx)
	// then
	require.NoError(s.T(), err)
	require.Len(s.T(), list, 2)
	assert.Equal(s.T(), first.ID, list[0].ID)
	assert.Equal(s.T(), second.ID, list[1].ID)
}

func (s *PgStoreSuite) TestUpdate_RecomputesMargin() {
	// given
	created := s.createProduct("Phone Case")
	wholesale := int64(9000)
	// when
	updated, err := s.store.Update(s.ctx, created.ID, ProductPatch{WholesaleCost: &wholesale})
	// then
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(9000), updated.WholesaleCost)
	assert.InDelta(s.T(), Margin(9000, 15000), updated.ProfitMargin, 0.001)
}

func (s *PgStoreSuite) TestDelete() {
	// given
	created := s.createProduct("Phone Case")
	// when
	removed, err := s.store.Delete(s.ctx, created.ID)
	// then
	require.NoError(s.T(), err)
	assert.Equal(s.T(), created.ID, removed.ID)
	_, err = s.store.FindByID(s.ctx, created.ID)
	assert.ErrorIs(s.T(), err, perrors.ErrProductNotFound)
}

func (s *PgStoreSuite) TestAdjustStock_Sale() {
	// given
	created := s.createProduct("Phone Case")
	// when
	updated, err := s.store.AdjustStock(s.ctx, created.ID, 5, ReasonSale)
	// then
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(40), updated.Stock)
	assert.Equal(s.T(), int64(235), updated.Sold)
}

func (s *PgStoreSuite) TestAdjustStock_InsufficientStock() {
	// given
	created := s.createProduct("Phone Case")
	// when
	_, err := s.store.AdjustStock(s.ctx, created.ID, 46, ReasonSale)
	// then
	assert.ErrorIs(s.T(), err, perrors.ErrInsufficientStock)
	found, err := s.store.FindByID(s.ctx, created.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(45), found.Stock)
	assert.Equal(s.T(), int64(230), found.Sold)
}

func (s *PgStoreSuite) TestIDsNotReusedAfterDelete() {
	// given
	s.createProduct("Phone Case")
	second := s.createProduct("Soap Bar")
	// when
	_, err := s.store.Delete(s.ctx, second.ID)
	require.NoError(s.T(), err)
	third := s.createProduct("Notebook")
	// then: bigserial does not reuse the freed identifier
	assert.Greater(s.T(), third.ID, second.ID)
}

// TestPgStoreIntegration runs the ProductStore integration tests.
func TestPgStoreIntegration(t *testing.T) {
	// Skip integration tests if the environment variable is set
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	// Run the test suite
	suite.Run(t, new(PgStoreSuite))
}
