package google_tools

import (
	"fmt"

	"github.com/teemow/gsuiteadmin/internal/dispatch"
	"github.com/teemow/gsuiteadmin/internal/server"
	"github.com/teemow/gsuiteadmin/internal/tools/device_tools"
	"github.com/teemow/gsuiteadmin/internal/tools/group_tools"
	"github.com/teemow/gsuiteadmin/internal/tools/orgunit_tools"
	"github.com/teemow/gsuiteadmin/internal/tools/report_tools"
	"github.com/teemow/gsuiteadmin/internal/tools/security_tools"
	"github.com/teemow/gsuiteadmin/internal/tools/user_tools"
)

type registerFunc func(*dispatch.Registry, *server.ServerContext, bool) error

var families = []struct {
	name     string
	register registerFunc
}{
	{"user", user_tools.RegisterUserTools},
	{"group", group_tools.RegisterGroupTools},
	{"org unit", orgunit_tools.RegisterOrgUnitTools},
	{"device", device_tools.RegisterDeviceTools},
	{"report", report_tools.RegisterReportTools},
	{"security", security_tools.RegisterSecurityTools},
}

// RegisterAdminTools registers every admin tool. In read-only mode only
// tools without side effects are registered.
func RegisterAdminTools(reg *dispatch.Registry, sc *server.ServerContext, readOnly bool) error {
	for _, f := range families {
		if err := f.register(reg, sc, readOnly); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", f.name, err)
		}
	}
	return nil
}
