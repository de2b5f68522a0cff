package imports

import (
	"io"
	"strconv"
	"strings"

	"github.com/orderdeskhq/orderdesk-backend/internal/users"
	"github.com/orderdeskhq/orderdesk-backend/pkg/enums"
	pkgerrors "github.com/orderdeskhq/orderdesk-backend/pkg/errors"
)

const userSheetName = "Users"

var userHeaders = []string{"Username", "Full Name", "Role", "PIN", "Active"}

// parseUserSheet reads the first sheet into batch inputs. User imports are
// all-or-nothing, so any unparseable row rejects the whole sheet.
func parseUserSheet(r io.Reader) ([]users.CreateUserInput, error) {
	rows, err := readSheet(r, userHeaders)
	if err != nil {
		return nil, err
	}

	var inputs []users.CreateUserInput
	for i, row := range rows {
		sheetRow := i + 2
		username := strings.TrimSpace(cell(row, 0))
		fullName := strings.TrimSpace(cell(row, 1))
		roleRaw := strings.TrimSpace(cell(row, 2))
		pin := strings.TrimSpace(cell(row, 3))
		activeRaw := strings.TrimSpace(cell(row, 4))

		if username == "" && fullName == "" && roleRaw == "" && pin == "" && activeRaw == "" {
			continue
		}

		role, err := enums.ParseRole(roleRaw)
		if err != nil {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "row %d: invalid role %q", sheetRow, roleRaw)
		}

		input := users.CreateUserInput{
			Username: username,
			Name:     fullName,
			Role:     role,
			PIN:      pin,
		}
		if activeRaw != "" {
			active, err := parseActive(activeRaw)
			if err != nil {
				return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "row %d: invalid active flag %q", sheetRow, activeRaw)
			}
			input.Active = &active
		}
		inputs = append(inputs, input)
	}

	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sheet has no data rows")
	}
	return inputs, nil
}

func parseActive(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	return strconv.ParseBool(raw)
}

// UserTemplate returns an xlsx with the expected headers and one sample row.
func (s *service) UserTemplate() ([]byte, error) {
	return buildTemplate(userSheetName, userHeaders, []any{"jdoe", "Jordan Doe", "staff", "1234", "true"})
}
