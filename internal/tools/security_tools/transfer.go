package security_tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/teemow/gsuiteadmin/internal/datatransfer"
	"github.com/teemow/gsuiteadmin/internal/dispatch"
	"github.com/teemow/gsuiteadmin/internal/failure"
	"github.com/teemow/gsuiteadmin/internal/google"
	"github.com/teemow/gsuiteadmin/internal/instrumentation"
	"github.com/teemow/gsuiteadmin/internal/server"
	"github.com/teemow/gsuiteadmin/internal/tools/common"
)

func handleManageDataTransfer(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		args := inv.Arguments
		action := args.String("action")

		transfers, err := sc.DataTransfer(cred)
		if err != nil {
			return nil, err
		}
		dir, err := sc.Directory(cred)
		if err != nil {
			return nil, err
		}
		resolve := func(ctx context.Context, key string) (string, error) {
			email := args.String(key)
			if email == "" {
				return "", nil
			}
			if err := common.ValidateEmail(key, email); err != nil {
				return "", err
			}
			return common.Call(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationGet,
				func(ctx context.Context) (string, error) {
					return dir.UserID(ctx, email)
				})
		}

		switch action {
		case actionListTransfers:
			oldID, err := resolve(ctx, "old_owner")
			if err != nil {
				return nil, err
			}
			newID, err := resolve(ctx, "new_owner")
			if err != nil {
				return nil, err
			}
			opts := datatransfer.ListTransfersOptions{
				OldOwnerUserID: oldID,
				NewOwnerUserID: newID,
				Status:         args.String("status"),
				MaxResults:     common.MaxResults(args),
			}
			list, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceDataTransfer, instrumentation.OperationList,
				func(ctx context.Context) ([]datatransfer.Transfer, error) {
					return transfers.ListTransfers(ctx, opts)
				})
			if err != nil {
				return nil, err
			}
			return dispatch.TextResult(formatTransfers(list)), nil

		case actionGetTransferStatus:
			id, err := requiredFor(args, "transfer_id", action)
			if err != nil {
				return nil, err
			}
			t, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceDataTransfer, instrumentation.OperationGet,
				func(ctx context.Context) (*datatransfer.Transfer, error) {
					return transfers.GetTransfer(ctx, id)
				})
			if err != nil {
				return nil, err
			}
			return dispatch.TextResult(formatTransfer(t)), nil

		default:
			oldOwner, err := requiredEmailFor(args, "old_owner", action)
			if err != nil {
				return nil, err
			}
			newOwner, err := requiredEmailFor(args, "new_owner", action)
			if err != nil {
				return nil, err
			}
			if strings.EqualFold(oldOwner, newOwner) {
				return nil, failure.InvalidArgument("new_owner", "old_owner and new_owner must differ")
			}
			appID := args.String("application_id")
			if appID != "" {
				if _, err := strconv.ParseInt(appID, 10, 64); err != nil {
					return nil, failure.InvalidArgument("application_id", "application_id %q must be numeric", appID)
				}
			}

			oldID, err := resolve(ctx, "old_owner")
			if err != nil {
				return nil, err
			}
			newID, err := resolve(ctx, "new_owner")
			if err != nil {
				return nil, err
			}
			if appID == "" {
				appID, err = common.Call(ctx, sc.Metrics(), instrumentation.ServiceDataTransfer, instrumentation.OperationList,
					func(ctx context.Context) (string, error) {
						return transfers.ApplicationID(ctx, datatransfer.DriveApplicationName)
					})
				if err != nil {
					return nil, err
				}
			}

			in := datatransfer.TransferInput{
				OldOwnerUserID: oldID,
				NewOwnerUserID: newID,
				ApplicationID:  appID,
			}
			t, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceDataTransfer, instrumentation.OperationCreate,
				func(ctx context.Context) (*datatransfer.Transfer, error) {
					return transfers.CreateTransfer(ctx, in)
				})
			if err != nil {
				return nil, err
			}
			return dispatch.TextResult(fmt.Sprintf("Data transfer from %s to %s started.\n\n%s", oldOwner, newOwner, formatTransfer(t))), nil
		}
	}
}

func formatTransfers(list []datatransfer.Transfer) string {
	if len(list) == 0 {
		return "No data transfers found."
	}
	var result strings.Builder
	result.WriteString(fmt.Sprintf("Found %d data transfer(s):\n\n", len(list)))
	for i, t := range list {
		result.WriteString(fmt.Sprintf("%d. Transfer ID: %s\n", i+1, t.ID))
		result.WriteString(fmt.Sprintf("   From: %s\n", t.OldOwnerUserID))
		result.WriteString(fmt.Sprintf("   To: %s\n", t.NewOwnerUserID))
		result.WriteString(fmt.Sprintf("   Status: %s\n", common.OrDash(t.Status)))
		result.WriteString(fmt.Sprintf("   Requested: %s\n\n", common.OrDash(t.RequestTime)))
	}
	return result.String()
}

func formatTransfer(t *datatransfer.Transfer) string {
	var result strings.Builder
	result.WriteString(fmt.Sprintf("Transfer ID: %s\n", t.ID))
	result.WriteString(fmt.Sprintf("   From: %s\n", t.OldOwnerUserID))
	result.WriteString(fmt.Sprintf("   To: %s\n", t.NewOwnerUserID))
	result.WriteString(fmt.Sprintf("   Overall Status: %s\n", common.OrDash(t.Status)))
	result.WriteString(fmt.Sprintf("   Request Time: %s\n", common.OrDash(t.RequestTime)))
	for _, a := range t.Applications {
		result.WriteString(fmt.Sprintf("   Application %s: %s\n", a.ApplicationID, common.OrDash(a.Status)))
	}
	return result.String()
}
