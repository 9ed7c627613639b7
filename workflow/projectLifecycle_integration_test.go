package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/reboothq/reboot_backend/config"
	"github.com/reboothq/reboot_backend/models"
	"github.com/reboothq/reboot_backend/utils"
	"github.com/reboothq/reboot_backend/workflow"
	"github.com/shopspring/decimal"
)

func setupLifecycleDB(t *testing.T) {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "reboot_test")
	t.Setenv("CURRENCY_PER_HOUR", "10")

	config.ConnectDatabaseWithRetry()
	models.MigrateTable()
}

func createShippableProject(t *testing.T, ctx context.Context, userId int) *models.Project {
	t.Helper()
	project, err := models.CreateProject(ctx, userId, &models.NewProject{
		Title:         "Game of Life",
		Description:   utils.StrPtr("cellular automaton"),
		CodeUrl:       utils.StrPtr("https://example.com/code"),
		PlayableUrl:   utils.StrPtr("https://example.com/play"),
		ScreenshotUrl: utils.StrPtr("https://example.com/shot.png"),
	})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return project
}

func userBalance(t *testing.T, ctx context.Context, userId int) decimal.Decimal {
	t.Helper()
	user, err := models.GetUser(ctx, userId)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	return user.Balance
}

// The whole ship-review-credit loop: request review, approve at 10 hours,
// then re-approve at 7 and verify the balance moved by the delta only.
func TestApprovalLifecycle(t *testing.T) {
	setupLifecycleDB(t)
	ctx := context.Background()

	var enqueues int
	prevEnqueue := workflow.SubmissionEnqueue
	workflow.SubmissionEnqueue = func() { enqueues++ }
	t.Cleanup(func() { workflow.SubmissionEnqueue = prevEnqueue })

	owner, err := models.CreateUser(ctx, &models.NewUser{Email: "owner@test.local", Password: "secret123"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	project := createShippableProject(t, ctx, owner.ID)

	shipped, err := workflow.RequestReview(ctx, owner.ID, project.ID)
	if err != nil {
		t.Fatalf("RequestReview: %v", err)
	}
	if shipped.Status != models.ProjectStatusInReview || shipped.SubmittedAt == nil {
		t.Fatalf("expected in_review with submitted_at, got %+v", shipped)
	}

	approved, err := workflow.Approve(ctx, project.ID, decimal.NewFromInt(10), "ok", nil)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != models.ProjectStatusApproved || !approved.ApprovedHours.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("approval state wrong: %+v", approved)
	}
	if got := userBalance(t, ctx, owner.ID); !got.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected balance 100 after first approval, got %s", got)
	}
	if enqueues != 1 {
		t.Fatalf("expected exactly one submission enqueue, got %d", enqueues)
	}

	// An hours correction re-approves the approved project directly; no trip
	// back through review is needed.
	corrected, err := workflow.Approve(ctx, project.ID, decimal.NewFromInt(7), "corrected", nil)
	if err != nil {
		t.Fatalf("re-approve: %v", err)
	}
	if corrected.Status != models.ProjectStatusApproved || !corrected.ApprovedHours.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("state after correction: %s %s", corrected.Status, corrected.ApprovedHours)
	}
	if got := userBalance(t, ctx, owner.ID); !got.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("expected balance 70 after downward correction, got %s", got)
	}
	if enqueues != 2 {
		t.Fatalf("expected a second enqueue on re-approval, got %d", enqueues)
	}

	// Approved projects stay out of the owner's ship path even though the
	// reviewer can still correct them.
	if _, err := workflow.RequestReview(ctx, owner.ID, project.ID); err == nil {
		t.Fatal("approved project must not be shippable again")
	}
}

func TestApproveRequiresReviewState(t *testing.T) {
	setupLifecycleDB(t)
	ctx := context.Background()

	owner, err := models.CreateUser(ctx, &models.NewUser{Email: "owner@test.local", Password: "secret123"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	project := createShippableProject(t, ctx, owner.ID)

	_, err = workflow.Approve(ctx, project.ID, decimal.NewFromInt(5), "ok", nil)
	var tr *utils.InvalidStateTransitionError
	if !errors.As(err, &tr) {
		t.Fatalf("expected InvalidStateTransition for pending project, got %v", err)
	}

	// No mutation leaked out of the rejected transition.
	reloaded, err := models.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if reloaded.Status != models.ProjectStatusPending || !reloaded.ApprovedHours.IsZero() {
		t.Fatalf("pending project was mutated: %+v", reloaded)
	}
	if got := userBalance(t, ctx, owner.ID); !got.IsZero() {
		t.Fatalf("balance must be untouched, got %s", got)
	}
}

func TestApproveRequiresReason(t *testing.T) {
	setupLifecycleDB(t)
	ctx := context.Background()

	owner, err := models.CreateUser(ctx, &models.NewUser{Email: "owner@test.local", Password: "secret123"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	project := createShippableProject(t, ctx, owner.ID)
	if _, err := workflow.RequestReview(ctx, owner.ID, project.ID); err != nil {
		t.Fatalf("RequestReview: %v", err)
	}

	_, err = workflow.Approve(ctx, project.ID, decimal.NewFromInt(5), "   ", nil)
	var ve *utils.ValidationError
	if !errors.As(err, &ve) || ve.Message != "Hour justification is required" {
		t.Fatalf("expected hour justification error, got %v", err)
	}
}

func TestRequestReviewRequiresShipFields(t *testing.T) {
	setupLifecycleDB(t)
	ctx := context.Background()

	owner, err := models.CreateUser(ctx, &models.NewUser{Email: "owner@test.local", Password: "secret123"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	project, err := models.CreateProject(ctx, owner.ID, &models.NewProject{
		Title:       "No screenshot",
		Description: utils.StrPtr("d"),
		CodeUrl:     utils.StrPtr("https://example.com/code"),
		PlayableUrl: utils.StrPtr("https://example.com/play"),
	})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	_, err = workflow.RequestReview(ctx, owner.ID, project.ID)
	var ve *utils.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}

	reloaded, err := models.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if reloaded.Status != models.ProjectStatusPending {
		t.Fatalf("status must not change on rejected ship, got %s", reloaded.Status)
	}
}

func TestRejectAndReship(t *testing.T) {
	setupLifecycleDB(t)
	ctx := context.Background()

	owner, err := models.CreateUser(ctx, &models.NewUser{Email: "owner@test.local", Password: "secret123"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	project := createShippableProject(t, ctx, owner.ID)
	if _, err := workflow.RequestReview(ctx, owner.ID, project.ID); err != nil {
		t.Fatalf("RequestReview: %v", err)
	}

	if _, err := workflow.Reject(ctx, project.ID, ""); err == nil {
		t.Fatal("reject without a user reason must fail")
	}

	rejected, err := workflow.Reject(ctx, project.ID, "needs a readme")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != models.ProjectStatusRejected || rejected.UserReason == nil {
		t.Fatalf("rejection state wrong: %+v", rejected)
	}
	if got := userBalance(t, ctx, owner.ID); !got.IsZero() {
		t.Fatalf("rejection must not touch the balance, got %s", got)
	}

	// rejected -> in_review is allowed: owner fixes and re-ships.
	reshipped, err := workflow.RequestReview(ctx, owner.ID, project.ID)
	if err != nil {
		t.Fatalf("re-ship after rejection: %v", err)
	}
	if reshipped.Status != models.ProjectStatusInReview {
		t.Fatalf("expected in_review after re-ship, got %s", reshipped.Status)
	}
}

func TestPurchaseDebitsAndCreatesOrder(t *testing.T) {
	setupLifecycleDB(t)
	ctx := context.Background()

	var enqueues int
	prevEnqueue := workflow.OrderEnqueue
	workflow.OrderEnqueue = func() { enqueues++ }
	t.Cleanup(func() { workflow.OrderEnqueue = prevEnqueue })

	buyer, err := models.CreateUser(ctx, &models.NewUser{Email: "buyer@test.local", Password: "secret123"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	db := config.GetDB()
	if err := db.Model(&models.User{}).Where("id = ?", buyer.ID).
		Update("balance", decimal.NewFromInt(50)).Error; err != nil {
		t.Fatalf("fund buyer: %v", err)
	}
	item := models.ShopItem{Name: "Sticker Pack", Price: decimal.NewFromInt(20), Enabled: utils.NewTrue()}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}

	order, err := workflow.Purchase(ctx, buyer.ID, &models.NewShopOrder{ShopItemId: item.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if !order.Total.Equal(decimal.NewFromInt(40)) || order.Status != models.OrderStatusPending {
		t.Fatalf("order wrong: %+v", order)
	}
	if got := userBalance(t, ctx, buyer.ID); !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected balance 10 after purchase, got %s", got)
	}
	if enqueues != 1 {
		t.Fatalf("expected one order enqueue, got %d", enqueues)
	}

	// Second purchase exceeds the remaining balance and must change nothing.
	_, err = workflow.Purchase(ctx, buyer.ID, &models.NewShopOrder{ShopItemId: item.ID})
	var ve *utils.ValidationError
	if !errors.As(err, &ve) || ve.Message != "Insufficient balance" {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if got := userBalance(t, ctx, buyer.ID); !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("failed purchase must not debit, got %s", got)
	}
	var orders int64
	if err := db.Model(&models.ShopOrder{}).Where("user_id = ?", buyer.ID).Count(&orders).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orders != 1 {
		t.Fatalf("failed purchase must not create an order, got %d", orders)
	}
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("reboot-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=reboot_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
