package profiledata

import (
	"testing"

	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/adapters/contracttest"
	profiledataport "github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/profiledata"
)

func TestContract_ProfileData(t *testing.T) {
	contracttest.RunProfileData(t, func(t *testing.T) (profiledataport.Repository, func()) {
		t.Helper()
		return NewRepo(), nil
	})
}
