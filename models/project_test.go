package models

import (
	"testing"

	"github.com/mmdatafocus/tradeportal_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectTransactionsMoveParentCash(t *testing.T) {
	ctx := newTestBusiness(t)
	parent := mustCompany(t, ctx, "Head Office", true, 1000)
	project, err := CreateProject(ctx, &NewProject{Name: "Warehouse"})
	require.NoError(t, err)
	assert.Equal(t, ProjectStatusActive, project.Status)

	income, err := AddProjectTransaction(ctx, &NewProjectTransaction{ProjectId: project.ID, Type: ProjectTransactionTypeIncome, Amount: dec(400)})
	require.NoError(t, err)
	assert.Equal(t, parent.ID, income.CompanyId)
	expense, err := AddProjectTransaction(ctx, &NewProjectTransaction{ProjectId: project.ID, Type: ProjectTransactionTypeExpense, Amount: dec(150)})
	require.NoError(t, err)

	reloaded, err := GetProject(ctx, project.ID)
	require.NoError(t, err)
	requireDecimal(t, 250, reloaded.Balance)
	requireDecimal(t, 1250, reloadCompany(t, ctx, parent.ID).Balance)
	requireNoDrift(t, ctx)

	_, err = DeleteProjectTransaction(ctx, expense.ID)
	require.NoError(t, err)
	_, err = DeleteProjectTransaction(ctx, income.ID)
	require.NoError(t, err)

	reloaded, err = GetProject(ctx, project.ID)
	require.NoError(t, err)
	requireDecimal(t, 0, reloaded.Balance)
	requireDecimal(t, 1000, reloadCompany(t, ctx, parent.ID).Balance)
	requireNoDrift(t, ctx)
}

func TestProjectTransactionNeedsParentCompany(t *testing.T) {
	ctx := newTestBusiness(t)
	mustCompany(t, ctx, "Branch", false, 500)
	project, err := CreateProject(ctx, &NewProject{Name: "Office"})
	require.NoError(t, err)

	_, err = AddProjectTransaction(ctx, &NewProjectTransaction{ProjectId: project.ID, Type: ProjectTransactionTypeIncome, Amount: dec(10)})
	require.True(t, utils.IsValidation(err))

	reloaded, err := GetProject(ctx, project.ID)
	require.NoError(t, err)
	requireDecimal(t, 0, reloaded.Balance)
}

func TestDeleteProjectWithTransactions(t *testing.T) {
	ctx := newTestBusiness(t)
	mustCompany(t, ctx, "Head Office", true, 0)
	project, err := CreateProject(ctx, &NewProject{Name: "Yard"})
	require.NoError(t, err)
	_, err = AddProjectTransaction(ctx, &NewProjectTransaction{ProjectId: project.ID, Type: ProjectTransactionTypeExpense, Amount: dec(10)})
	require.NoError(t, err)

	_, err = DeleteProject(ctx, project.ID)
	assert.True(t, utils.IsValidation(err))

	_, err = CreateProject(ctx, &NewProject{Name: "Yard"})
	assert.True(t, utils.IsValidation(err))
	_, err = CreateProject(ctx, &NewProject{Name: "Dock", Status: "paused"})
	assert.True(t, utils.IsValidation(err))
}
