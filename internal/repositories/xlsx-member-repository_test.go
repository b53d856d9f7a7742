package repositories

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"member2ldap/internal/entities"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}

	path := filepath.Join(t.TempDir(), "members.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func collect(t *testing.T, src MemberSourceInterface, site string) ([]entities.Member, error) {
	t.Helper()
	var members []entities.Member
	for m, err := range src.Members(context.Background(), site) {
		if err != nil {
			return members, err
		}
		members = append(members, m)
	}
	return members, nil
}

func TestXLSXMemberRepository_Members(t *testing.T) {
	path := writeWorkbook(t, "portal", [][]interface{}{
		{"UID", "Full Name", "Mail", "Password"},
		{"akelly", "Anne Kelly", "a@x.org", "{SHA}abc"},
		{"", "", "", ""},
		{"prince", "Prince", "", ""},
	})

	members, err := collect(t, NewXLSXMemberRepository(path, zap.NewNop()), "portal")
	require.NoError(t, err)

	assert.Equal(t, []entities.Member{
		{UserID: "akelly", FullName: "Anne Kelly", Email: "a@x.org", PasswordCredential: "{SHA}abc"},
		{UserID: "prince", FullName: "Prince"},
	}, members)
}

func TestXLSXMemberRepository_ColumnOrderAndAliases(t *testing.T) {
	path := writeWorkbook(t, "portal", [][]interface{}{
		{"password_hash", "email", "login", "cn"},
		{"{SSHA}x", "b@x.org", "bob", "Bob Stone"},
	})

	members, err := collect(t, NewXLSXMemberRepository(path, zap.NewNop()), "portal")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, entities.Member{UserID: "bob", FullName: "Bob Stone", Email: "b@x.org", PasswordCredential: "{SSHA}x"}, members[0])
}

func TestXLSXMemberRepository_Errors(t *testing.T) {
	path := writeWorkbook(t, "portal", [][]interface{}{
		{"name", "email"},
		{"Anne Kelly", "a@x.org"},
	})
	repo := NewXLSXMemberRepository(path, zap.NewNop())

	_, err := collect(t, repo, "portal")
	assert.ErrorContains(t, err, "колонка с логином")

	_, err = collect(t, repo, "missing")
	assert.Error(t, err)

	_, err = collect(t, NewXLSXMemberRepository(filepath.Join(t.TempDir(), "nope.xlsx"), zap.NewNop()), "portal")
	assert.Error(t, err)
}

func TestXLSXMemberRepository_PasswordIsNotTrimmed(t *testing.T) {
	path := writeWorkbook(t, "portal", [][]interface{}{
		{"uid", "name", "password"},
		{" akelly ", "Anne Kelly", " {SSHA}ab c "},
	})

	members, err := collect(t, NewXLSXMemberRepository(path, zap.NewNop()), "portal")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "akelly", members[0].UserID)
	assert.Equal(t, " {SSHA}ab c ", members[0].PasswordCredential)
}
