package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/sgva-ao/sgva/internal/payroll"
)

func (c *Client) CreateCategory(ctx context.Context, name, description string) (*payroll.Category, error) {
	var result payroll.Category
	body := map[string]string{"name": name, "description": description}
	if err := c.post(ctx, "/api/v1/categories", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]payroll.Category, error) {
	var result []payroll.Category
	if err := c.get(ctx, "/api/v1/categories", &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) CreateEmployee(ctx context.Context, emp *payroll.Employee) (*payroll.Employee, error) {
	body := map[string]any{
		"name":        emp.Name,
		"base_salary": emp.BaseSalary,
		"active":      emp.Active,
	}
	if emp.CategoryID != nil {
		body["category_id"] = *emp.CategoryID
	}
	if emp.ManualSubsidy != nil {
		body["manual_subsidy"] = *emp.ManualSubsidy
	}
	var result payroll.Employee
	if err := c.post(ctx, "/api/v1/employees", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListEmployees(ctx context.Context, activeOnly bool) ([]payroll.Employee, error) {
	params := url.Values{}
	if activeOnly {
		params.Set("active", "true")
	}
	var result []payroll.Employee
	if err := c.get(ctx, "/api/v1/employees?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) GetEmployee(ctx context.Context, id int64) (*payroll.Employee, error) {
	var result payroll.Employee
	if err := c.get(ctx, fmt.Sprintf("/api/v1/employees/%d", id), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) UpdateEmployee(ctx context.Context, id int64, u payroll.EmployeeUpdate) (*payroll.Employee, error) {
	var result payroll.Employee
	if err := c.patch(ctx, fmt.Sprintf("/api/v1/employees/%d", id), u, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListAssignments(ctx context.Context, employeeID int64) ([]payroll.Assignment, error) {
	var result []payroll.Assignment
	if err := c.get(ctx, fmt.Sprintf("/api/v1/employees/%d/subsidies", employeeID), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) Assign(ctx context.Context, employeeID, subsidyID int64, override *decimal.Decimal) (*payroll.Assignment, error) {
	body := map[string]any{"active": true}
	if override != nil {
		body["override_value"] = *override
	}
	var result payroll.Assignment
	if err := c.put(ctx, fmt.Sprintf("/api/v1/employees/%d/subsidies/%d", employeeID, subsidyID), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Unassign(ctx context.Context, employeeID, subsidyID int64) error {
	return c.del(ctx, fmt.Sprintf("/api/v1/employees/%d/subsidies/%d", employeeID, subsidyID))
}

func (c *Client) SetAbsence(ctx context.Context, a *payroll.Absence) (*payroll.Absence, error) {
	var result payroll.Absence
	path := fmt.Sprintf("/api/v1/employees/%d/absences/%d/%d", a.EmployeeID, a.Year, a.Month)
	if err := c.put(ctx, path, a, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) CreateSubsidy(ctx context.Context, sub *payroll.Subsidy) (*payroll.Subsidy, error) {
	var result payroll.Subsidy
	if err := c.post(ctx, "/api/v1/subsidies", sub, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListSubsidies(ctx context.Context) ([]payroll.Subsidy, error) {
	var result []payroll.Subsidy
	if err := c.get(ctx, "/api/v1/subsidies", &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) UpdateSubsidy(ctx context.Context, id int64, u payroll.SubsidyUpdate) (*payroll.Subsidy, error) {
	var result payroll.Subsidy
	if err := c.patch(ctx, fmt.Sprintf("/api/v1/subsidies/%d", id), u, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeleteSubsidy(ctx context.Context, id int64) error {
	return c.del(ctx, fmt.Sprintf("/api/v1/subsidies/%d", id))
}

type AssignCategoryResult struct {
	SubsidyID  int64 `json:"subsidy_id"`
	CategoryID int64 `json:"category_id"`
	Assigned   int   `json:"assigned"`
}

func (c *Client) AssignToCategory(ctx context.Context, subsidyID, categoryID int64, override *decimal.Decimal) (*AssignCategoryResult, error) {
	body := map[string]any{"category_id": categoryID}
	if override != nil {
		body["override_value"] = *override
	}
	var result AssignCategoryResult
	if err := c.post(ctx, fmt.Sprintf("/api/v1/subsidies/%d/assign-category", subsidyID), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
