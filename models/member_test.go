package models

import (
	"testing"

	"github.com/mmdatafocus/tradeportal_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberTransferRoundTrip(t *testing.T) {
	ctx := newTestBusiness(t)
	parent := mustCompany(t, ctx, "Head Office", true, 1000)
	memberType, err := CreateMemberType(ctx, &NewMemberType{Name: "Shareholder"})
	require.NoError(t, err)
	member, err := CreateMember(ctx, &NewMember{MemberTypeId: memberType.ID, Name: "Daw Khin"})
	require.NoError(t, err)

	transfer, err := AddMemberTransfer(ctx, &NewMemberTransfer{MemberId: member.ID, Amount: dec(250)})
	require.NoError(t, err)
	assert.Equal(t, parent.ID, transfer.CompanyId)

	reloaded, err := GetMember(ctx, member.ID)
	require.NoError(t, err)
	requireDecimal(t, 250, reloaded.Balance)
	requireDecimal(t, 750, reloadCompany(t, ctx, parent.ID).Balance)
	requireNoDrift(t, ctx)

	_, err = DeleteMember(ctx, member.ID)
	assert.True(t, utils.IsValidation(err))

	_, err = DeleteMemberTransfer(ctx, transfer.ID)
	require.NoError(t, err)
	reloaded, err = GetMember(ctx, member.ID)
	require.NoError(t, err)
	requireDecimal(t, 0, reloaded.Balance)
	requireDecimal(t, 1000, reloadCompany(t, ctx, parent.ID).Balance)
	requireNoDrift(t, ctx)
}

func TestMemberTransferNeedsParentCompany(t *testing.T) {
	ctx := newTestBusiness(t)
	memberType, err := CreateMemberType(ctx, &NewMemberType{Name: "Partner"})
	require.NoError(t, err)
	member, err := CreateMember(ctx, &NewMember{MemberTypeId: memberType.ID, Name: "U Ba"})
	require.NoError(t, err)

	_, err = AddMemberTransfer(ctx, &NewMemberTransfer{MemberId: member.ID, Amount: dec(10)})
	assert.True(t, utils.IsValidation(err))

	_, err = DeleteMemberType(ctx, memberType.ID)
	assert.True(t, utils.IsValidation(err))
}

func TestMemberTypeNames(t *testing.T) {
	ctx := newTestBusiness(t)
	first, err := CreateMemberType(ctx, &NewMemberType{Name: "Investor"})
	require.NoError(t, err)
	second, err := CreateMemberType(ctx, &NewMemberType{Name: "Family"})
	require.NoError(t, err)

	businessId, _ := utils.GetBusinessIdFromContext(ctx)
	names, err := MemberTypeNames(ctx, businessId, []int{first.ID, second.ID, second.ID + 10})
	require.NoError(t, err)
	assert.Equal(t, "Investor", names[first.ID])
	assert.Equal(t, "Family", names[second.ID])
	assert.NotContains(t, names, second.ID+10)
}
