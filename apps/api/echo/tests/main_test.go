package tests

import (
	"fmt"
	"os"
	"testing"

	"github.com/trezcool/tathmini/assets"
	"github.com/trezcool/tathmini/core"
)

func TestMain(m *testing.M) {
	if err := core.LoadEmailTemplates(assets.EmailTemplates, assets.EmailTemplatesDir, core.NewTestConfig()); err != nil {
		fmt.Printf("core.LoadEmailTemplates(): %v", err)
		os.Exit(1)
	}
	os.Exit(m.Run())
}
