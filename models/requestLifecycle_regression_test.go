package models_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stimulico/compensation_backend/config"
	"github.com/stimulico/compensation_backend/models"
)

// Regression: every request mutation must leave the employee's aggregate
// payment equal to the sum of their approved requests, and archiving a
// campaign must freeze children all-or-nothing.
func TestRequestLifecycle_RecomputeAndArchive(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "compensation_test")

	config.ConnectDatabaseWithRetry()
	if err := models.Migrate(config.GetDB()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if _, err := models.EnsureGroups(ctx, models.DefaultGroups); err != nil {
		t.Fatalf("EnsureGroups: %v", err)
	}
	admin, err := models.CreateUser(ctx, &models.NewUser{
		Username: "admin",
		Password: "secret-pw",
		FullName: "Site Admin",
		IsStaff:  true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	role, err := models.ResolveRole(ctx, admin.ID)
	if err != nil {
		t.Fatalf("ResolveRole: %v", err)
	}

	division, err := models.CreateDivision(ctx, &models.NewDivision{Name: "Physics"})
	if err != nil {
		t.Fatalf("CreateDivision: %v", err)
	}
	position, err := models.CreatePosition(ctx, &models.NewPosition{
		Name:       "Professor",
		BaseSalary: decimal.NewFromInt(40000),
	})
	if err != nil {
		t.Fatalf("CreatePosition: %v", err)
	}
	employee, err := models.CreateEmployee(ctx, &models.NewEmployee{
		FullName:   "Ivanov Ivan",
		DivisionId: division.ID,
		PositionId: position.ID,
		Category:   models.EmployeeCategoryAcademic,
	})
	if err != nil {
		t.Fatalf("CreateEmployee: %v", err)
	}

	campaign, err := models.CreateRequestCampaign(ctx, &models.NewRequestCampaign{
		Name:    "November round",
		OpensAt: time.Now().UTC().AddDate(0, 0, -1),
	})
	if err != nil {
		t.Fatalf("CreateRequestCampaign: %v", err)
	}

	// A draft campaign must refuse requests.
	_, err = models.CreateStimulusRequest(ctx, role, &models.NewStimulusRequest{
		EmployeeId: employee.ID,
		CampaignId: campaign.ID,
		Amount:     decimal.NewFromInt(1000),
	})
	if err == nil {
		t.Fatal("a draft campaign must not accept requests")
	}
	if _, err := models.OpenRequestCampaign(ctx, campaign.ID); err != nil {
		t.Fatalf("OpenRequestCampaign: %v", err)
	}

	submit := func(amount int64) *models.StimulusRequest {
		t.Helper()
		request, err := models.CreateStimulusRequest(ctx, role, &models.NewStimulusRequest{
			EmployeeId:    employee.ID,
			CampaignId:    campaign.ID,
			Amount:        decimal.NewFromInt(amount),
			Justification: "test round",
		})
		if err != nil {
			t.Fatalf("CreateStimulusRequest(%d): %v", amount, err)
		}
		return request
	}
	payment := func() decimal.Decimal {
		t.Helper()
		fresh, err := models.GetEmployee(ctx, role, employee.ID)
		if err != nil {
			t.Fatalf("GetEmployee: %v", err)
		}
		return fresh.Payment
	}

	first := submit(1000)
	if !payment().IsZero() {
		t.Fatalf("pending requests must not count, payment = %s", payment())
	}
	if _, err := models.UpdateStimulusRequestStatus(ctx, role, first.ID, models.RequestStatusApproved, ""); err != nil {
		t.Fatalf("approve first: %v", err)
	}
	if !payment().Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected payment 1000, got %s", payment())
	}

	second := submit(500)
	if _, err := models.UpdateStimulusRequestStatus(ctx, role, second.ID, models.RequestStatusApproved, ""); err != nil {
		t.Fatalf("approve second: %v", err)
	}
	if !payment().Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("expected payment 1500, got %s", payment())
	}

	third := submit(200)
	if _, err := models.UpdateStimulusRequestStatus(ctx, role, third.ID, models.RequestStatusRejected, "no budget"); err != nil {
		t.Fatalf("reject third: %v", err)
	}
	if !payment().Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("a rejection must not change the total, got %s", payment())
	}

	fresh, err := models.GetEmployee(ctx, role, employee.ID)
	if err != nil {
		t.Fatalf("GetEmployee: %v", err)
	}
	if !strings.Contains(fresh.Justification, "Site Admin") {
		t.Fatalf("justification must name the requester, got %q", fresh.Justification)
	}

	// Archive path: pending requests block it, all-or-nothing otherwise.
	fourth := submit(300)
	if _, err := models.CloseRequestCampaign(ctx, campaign.ID, false); err != nil {
		t.Fatalf("CloseRequestCampaign: %v", err)
	}
	if _, err := models.ArchiveRequestCampaign(ctx, campaign.ID); err == nil {
		t.Fatal("archiving with a pending request must fail")
	}
	reloaded, err := models.GetRequestCampaign(ctx, campaign.ID)
	if err != nil {
		t.Fatalf("GetRequestCampaign: %v", err)
	}
	if reloaded.Status != models.CampaignStatusClosed {
		t.Fatalf("a failed archive must leave the campaign closed, got %s", reloaded.Status)
	}

	if _, err := models.UpdateStimulusRequestStatus(ctx, role, fourth.ID, models.RequestStatusRejected, ""); err != nil {
		t.Fatalf("reject fourth: %v", err)
	}
	if _, err := models.ArchiveRequestCampaign(ctx, campaign.ID); err != nil {
		t.Fatalf("ArchiveRequestCampaign: %v", err)
	}

	var archived []*models.StimulusRequest
	db := config.GetDB()
	if err := db.WithContext(ctx).Where("campaign_id = ?", campaign.ID).Find(&archived).Error; err != nil {
		t.Fatalf("load requests: %v", err)
	}
	if len(archived) != 4 {
		t.Fatalf("expected 4 requests, got %d", len(archived))
	}
	for _, request := range archived {
		if request.Status != models.RequestStatusArchived {
			t.Errorf("request %d not archived: %s", request.ID, request.Status)
		}
		if request.FinalStatus == "" || request.ArchivedAt == nil {
			t.Errorf("request %d missing frozen label or archived_at", request.ID)
		}
	}

	// Archived-approved requests stop counting towards the total.
	if !payment().IsZero() {
		t.Fatalf("archived requests must not count, payment = %s", payment())
	}
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("compensation-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=compensation_test",
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
