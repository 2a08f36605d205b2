package bills

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rmarchan/fieldrent-backend/pkg/db/models"
	"github.com/rmarchan/fieldrent-backend/pkg/enums"
	"github.com/rmarchan/fieldrent-backend/pkg/pagination"
)

func setupBillsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	billsTable := `
CREATE TABLE IF NOT EXISTS bills (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  field_name TEXT NOT NULL,
  billing_mode TEXT NOT NULL,
  rate_per_hour NUMERIC NOT NULL DEFAULT 0,
  start_time DATETIME NOT NULL,
  stop_time DATETIME,
  elapsed_formatted TEXT,
  unit_count INTEGER,
  unit_price NUMERIC,
  cost NUMERIC,
  status TEXT NOT NULL DEFAULT 'open',
  payment_method TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  CHECK (billing_mode IN ('time', 'count')),
  CHECK (status IN ('open', 'payable', 'settled')),
  CHECK (rate_per_hour >= 0),
  CHECK (unit_count IS NULL OR unit_count >= 0),
  CHECK (unit_price IS NULL OR unit_price > 0),
  CHECK (cost IS NULL OR cost >= 0)
);`
	paymentsTable := `
CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  bill_id TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  method TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME
);`
	for _, ddl := range []string{billsTable, paymentsTable} {
		if err := conn.Exec(ddl).Error; err != nil {
			t.Fatalf("failed to create table: %v", err)
		}
	}
	// The shared cache keeps rows around between tests.
	for _, table := range []string{"payments", "bills"} {
		if err := conn.Exec("DELETE FROM " + table).Error; err != nil {
			t.Fatalf("failed to reset table %s: %v", table, err)
		}
	}
	return conn
}

func seedBill(t *testing.T, conn *gorm.DB, userID uuid.UUID, fieldName string, status enums.BillStatus, createdAt time.Time) *models.Bill {
	t.Helper()

	bill := &models.Bill{
		ID:          uuid.New(),
		UserID:      userID,
		FieldName:   fieldName,
		BillingMode: enums.BillingModeTime,
		RatePerHour: decimal.NewFromInt(60),
		StartTime:   createdAt,
		Status:      status,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	if err := conn.Create(bill).Error; err != nil {
		t.Fatalf("failed to seed bill: %v", err)
	}
	return bill
}

func seedPayment(t *testing.T, conn *gorm.DB, billID uuid.UUID, amount int64, status enums.PaymentStatus) {
	t.Helper()

	payment := &models.Payment{
		ID:     uuid.New(),
		BillID: billID,
		Amount: decimal.NewFromInt(amount),
		Method: "cash",
		Status: status,
	}
	if err := conn.Create(payment).Error; err != nil {
		t.Fatalf("failed to seed payment: %v", err)
	}
}

func TestListForUser_TotalPaidCountsCompletedOnly(t *testing.T) {
	conn := setupBillsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	userID := uuid.New()
	otherID := uuid.New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	older := seedBill(t, conn, userID, "north", enums.BillStatusPayable, base)
	newer := seedBill(t, conn, userID, "south", enums.BillStatusPayable, base.Add(time.Hour))
	seedBill(t, conn, otherID, "north", enums.BillStatusOpen, base.Add(2*time.Hour))

	seedPayment(t, conn, older.ID, 40, enums.PaymentStatusCompleted)
	seedPayment(t, conn, older.ID, 25, enums.PaymentStatusCompleted)
	seedPayment(t, conn, older.ID, 60, enums.PaymentStatusPending)

	rows, err := repo.ListForUser(ctx, userID, pagination.Params{}, BillFilters{})
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 bills, got %d", len(rows))
	}
	if rows[0].ID != newer.ID || rows[1].ID != older.ID {
		t.Fatalf("expected newest-first ordering, got %v then %v", rows[0].ID, rows[1].ID)
	}
	if !rows[0].TotalPaid.IsZero() {
		t.Fatalf("expected zero total_paid without payments, got %s", rows[0].TotalPaid)
	}
	if !rows[1].TotalPaid.Equal(decimal.NewFromInt(65)) {
		t.Fatalf("expected total_paid 65 from completed payments, got %s", rows[1].TotalPaid)
	}
}

func TestListForUser_Filters(t *testing.T) {
	conn := setupBillsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	userID := uuid.New()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	north := seedBill(t, conn, userID, "north", enums.BillStatusSettled, base)
	seedBill(t, conn, userID, "south", enums.BillStatusOpen, base.Add(time.Minute))

	settled := enums.BillStatusSettled
	rows, err := repo.ListForUser(ctx, userID, pagination.Params{}, BillFilters{Status: &settled})
	if err != nil {
		t.Fatalf("ListForUser by status failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != north.ID {
		t.Fatalf("expected only the settled bill, got %d rows", len(rows))
	}

	rows, err = repo.ListForUser(ctx, userID, pagination.Params{}, BillFilters{FieldName: "north"})
	if err != nil {
		t.Fatalf("ListForUser by field failed: %v", err)
	}
	if len(rows) != 1 || rows[0].FieldName != "north" {
		t.Fatalf("expected only the north bill, got %d rows", len(rows))
	}
}

func TestListForUser_CursorPagination(t *testing.T) {
	conn := setupBillsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	userID := uuid.New()
	base := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)

	var seeded []*models.Bill
	for i := 0; i < 4; i++ {
		seeded = append(seeded, seedBill(t, conn, userID, "north", enums.BillStatusOpen, base.Add(time.Duration(i)*time.Minute)))
	}

	firstPage, err := repo.ListForUser(ctx, userID, pagination.Params{Limit: 2}, BillFilters{})
	if err != nil {
		t.Fatalf("ListForUser first page failed: %v", err)
	}
	// Limit 2 plus the buffer row used to detect another page.
	if len(firstPage) != 3 {
		t.Fatalf("expected 3 rows on first page, got %d", len(firstPage))
	}
	if firstPage[0].ID != seeded[3].ID {
		t.Fatalf("expected newest bill first, got %v", firstPage[0].ID)
	}

	cursor := pagination.EncodeCursor(pagination.Cursor{
		CreatedAt: firstPage[1].CreatedAt,
		ID:        firstPage[1].ID,
	})
	secondPage, err := repo.ListForUser(ctx, userID, pagination.Params{Limit: 2, Cursor: cursor}, BillFilters{})
	if err != nil {
		t.Fatalf("ListForUser second page failed: %v", err)
	}
	if len(secondPage) != 2 {
		t.Fatalf("expected 2 rows on second page, got %d", len(secondPage))
	}
	if secondPage[0].ID != seeded[1].ID || secondPage[1].ID != seeded[0].ID {
		t.Fatalf("expected the two oldest bills, got %v then %v", secondPage[0].ID, secondPage[1].ID)
	}

	if _, err := repo.ListForUser(ctx, userID, pagination.Params{Cursor: "not-base64"}, BillFilters{}); err == nil {
		t.Fatal("expected an error for a malformed cursor")
	}
}

func TestCreateCountBillPassesSchemaChecks(t *testing.T) {
	conn := setupBillsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	// A freshly started count bill carries a zero count; the schema must
	// accept it, only negative counts are out of range.
	zero := int64(0)
	price := decimal.NewFromInt(40)
	bill := &models.Bill{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		FieldName:   "north",
		BillingMode: enums.BillingModeCount,
		StartTime:   time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC),
		UnitCount:   &zero,
		UnitPrice:   &price,
		Status:      enums.BillStatusOpen,
	}
	created, err := repo.Create(ctx, bill)
	if err != nil {
		t.Fatalf("creating a count bill with zero count failed: %v", err)
	}

	if err := repo.Update(ctx, created.ID, map[string]any{"unit_count": int64(0)}); err != nil {
		t.Fatalf("resetting the count to zero failed: %v", err)
	}

	found, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if found.UnitCount == nil || *found.UnitCount != 0 {
		t.Fatalf("expected unit_count 0, got %v", found.UnitCount)
	}

	negative := int64(-1)
	bad := &models.Bill{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		FieldName:   "north",
		BillingMode: enums.BillingModeCount,
		StartTime:   time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC),
		UnitCount:   &negative,
		UnitPrice:   &price,
		Status:      enums.BillStatusOpen,
	}
	if _, err := repo.Create(ctx, bad); err == nil {
		t.Fatal("expected a negative count to violate the schema")
	}
}

func TestDeleteForUserReportsCount(t *testing.T) {
	conn := setupBillsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	userID := uuid.New()
	otherID := uuid.New()
	base := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

	seedBill(t, conn, userID, "north", enums.BillStatusOpen, base)
	seedBill(t, conn, userID, "south", enums.BillStatusOpen, base.Add(time.Minute))
	kept := seedBill(t, conn, otherID, "north", enums.BillStatusOpen, base.Add(2*time.Minute))

	deleted, err := repo.DeleteForUser(ctx, userID)
	if err != nil {
		t.Fatalf("DeleteForUser failed: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted bills, got %d", deleted)
	}

	if err := repo.Delete(ctx, kept.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	var count int64
	if err := conn.Model(&models.Bill{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty bills table, got %d rows", count)
	}
}
