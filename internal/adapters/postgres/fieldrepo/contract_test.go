package fieldrepo

import (
	"testing"

	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/adapters/contracttest"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/adapters/postgres/testutil"
	fieldrepoport "github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/fieldrepo"
)

func TestContract_PostgresFieldRepo(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)

	contracttest.RunFieldRepo(t, func(t *testing.T) (fieldrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(pool), nil
	})
}
