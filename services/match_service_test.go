package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/footballinvestment/lfa-legacy-go/brackets"
	"github.com/footballinvestment/lfa-legacy-go/models"
	"github.com/footballinvestment/lfa-legacy-go/repositories"
)

// errTxRequired flags a repository call that reached the database pool
// instead of riding the operation's transaction.
var errTxRequired = errors.New("executor is not the operation transaction")

// stubConnector backs a *sql.DB whose only job is handing out transactions;
// every query in these tests goes through stub repositories instead.
type stubConnector struct {
	conn *stubConn
}

func (c *stubConnector) Connect(context.Context) (driver.Conn, error) { return c.conn, nil }
func (c *stubConnector) Driver() driver.Driver                        { return stubDriver{} }

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("open not supported")
}

type stubConn struct {
	txs []*stubTx
}

func (c *stubConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("statements not supported")
}
func (c *stubConn) Close() error { return nil }
func (c *stubConn) Begin() (driver.Tx, error) {
	tx := &stubTx{}
	c.txs = append(c.txs, tx)
	return tx, nil
}

type stubTx struct {
	committed  bool
	rolledBack bool
}

func (t *stubTx) Commit() error   { t.committed = true; return nil }
func (t *stubTx) Rollback() error { t.rolledBack = true; return nil }

type stubTournamentRepo struct {
	repositories.TournamentRepository
	tournament *models.Tournament
}

func (r *stubTournamentRepo) GetByID(context.Context, int) (*models.Tournament, error) {
	return r.tournament, nil
}

func (r *stubTournamentRepo) UpdateWinner(_ context.Context, exec repositories.SQLExecutor, _ int, winnerID *int) error {
	if exec == nil {
		return errTxRequired
	}
	r.tournament.WinnerID = winnerID
	return nil
}

func (r *stubTournamentRepo) UpdateStatus(_ context.Context, exec repositories.SQLExecutor, _ int, status models.TournamentStatus) error {
	if exec == nil {
		return errTxRequired
	}
	r.tournament.Status = status
	return nil
}

type stubParticipantRepo struct {
	repositories.ParticipantRepository
	participants []*models.Participant
	seeds        map[int]int
	eliminated   map[int]bool
}

func (r *stubParticipantRepo) SetEliminated(_ context.Context, exec repositories.SQLExecutor, id int, eliminated bool) error {
	if exec == nil {
		return errTxRequired
	}
	r.eliminated[id] = eliminated
	return nil
}

type stubMatchRepo struct {
	repositories.MatchRepository
	rows []*models.Match
}

func (r *stubMatchRepo) ListByTournament(context.Context, repositories.SQLExecutor, int) ([]*models.Match, error) {
	return r.rows, nil
}

func (r *stubMatchRepo) Update(_ context.Context, exec repositories.SQLExecutor, _ *models.Match) error {
	if exec == nil {
		return errTxRequired
	}
	return nil
}

type stubAuditRepo struct {
	repositories.AuditRepository
	conn *stubConn

	createErr        error
	entry            *models.AuditLogEntry
	execWasTx        bool
	committedAtWrite bool
}

func (r *stubAuditRepo) Create(_ context.Context, exec repositories.SQLExecutor, entry *models.AuditLogEntry) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.entry = entry
	r.execWasTx = exec != nil
	if len(r.conn.txs) > 0 {
		r.committedAtWrite = r.conn.txs[len(r.conn.txs)-1].committed
	}
	return nil
}

type correctionFixture struct {
	svc   MatchService
	conn  *stubConn
	audit *stubAuditRepo
	pA    int
	pB    int
}

// newCorrectionFixture wires a match service around a decided one-match
// bracket: participant A beat participant B 2:1 in the final.
func newCorrectionFixture(t *testing.T, auditErr error) *correctionFixture {
	t.Helper()

	pA, pB := 101, 102
	scoreA, scoreB := 2, 1
	winner := pA
	final := &models.Match{
		ID:             1,
		TournamentID:   7,
		RoundNumber:    1,
		SlotIndex:      0,
		ParticipantAID: &pA,
		ParticipantBID: &pB,
		ScoreA:         &scoreA,
		ScoreB:         &scoreB,
		Status:         models.MatchStatusCompleted,
		WinnerID:       &winner,
	}

	conn := &stubConn{}
	db := sql.OpenDB(&stubConnector{conn: conn})
	t.Cleanup(func() { db.Close() })

	audit := &stubAuditRepo{conn: conn, createErr: auditErr}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewMatchService(
		db,
		&stubTournamentRepo{tournament: &models.Tournament{ID: 7, OrganizerID: 1, Status: models.TournamentStatusCompleted, WinnerID: &winner}},
		&stubParticipantRepo{eliminated: make(map[int]bool)},
		&stubMatchRepo{rows: []*models.Match{final}},
		audit,
		NewTournamentLocker(),
		brackets.NewHub(logger),
		logger,
	)
	return &correctionFixture{svc: svc, conn: conn, audit: audit, pA: pA, pB: pB}
}

func TestCorrectResultAuditCommitsWithMutation(t *testing.T) {
	f := newCorrectionFixture(t, nil)
	staff := Actor{ID: 3, Role: models.RoleAdmin}

	corrected, err := f.svc.CorrectResult(context.Background(), 7, 1, 1, 3, staff)
	require.NoError(t, err)
	require.NotNil(t, corrected.WinnerID)
	assert.Equal(t, f.pB, *corrected.WinnerID)

	require.Len(t, f.conn.txs, 1)
	tx := f.conn.txs[0]
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)

	// The attribution row rides the same transaction as the correction.
	require.NotNil(t, f.audit.entry)
	assert.True(t, f.audit.execWasTx)
	assert.False(t, f.audit.committedAtWrite)
	assert.Equal(t, models.AuditActionResultCorrected, f.audit.entry.Action)
	assert.Equal(t, staff.ID, f.audit.entry.ActorID)
	assert.Equal(t, 1, f.audit.entry.EntityID)
}

func TestCorrectResultRollsBackWhenAuditInsertFails(t *testing.T) {
	f := newCorrectionFixture(t, errors.New("audit_log insert failed"))

	_, err := f.svc.CorrectResult(context.Background(), 7, 1, 1, 3, Actor{ID: 3, Role: models.RoleAdmin})
	require.Error(t, err)

	require.Len(t, f.conn.txs, 1)
	tx := f.conn.txs[0]
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}
