package datatransfer

import (
	"strconv"

	transferapi "google.golang.org/api/admin/datatransfer/v1"
)

// Transfer is one data transfer request.
type Transfer struct {
	ID             string
	OldOwnerUserID string
	NewOwnerUserID string
	Status         string
	RequestTime    string
	Applications   []ApplicationTransfer
}

// ApplicationTransfer is the per-application part of a transfer.
type ApplicationTransfer struct {
	ApplicationID string
	Status        string
}

// Application is a transferable application.
type Application struct {
	ID   string
	Name string
}

func toTransfer(t *transferapi.DataTransfer) Transfer {
	out := Transfer{
		ID:             t.Id,
		OldOwnerUserID: t.OldOwnerUserId,
		NewOwnerUserID: t.NewOwnerUserId,
		Status:         t.OverallTransferStatusCode,
		RequestTime:    t.RequestTime,
	}
	for _, a := range t.ApplicationDataTransfers {
		out.Applications = append(out.Applications, ApplicationTransfer{
			ApplicationID: strconv.FormatInt(a.ApplicationId, 10),
			Status:        a.ApplicationTransferStatus,
		})
	}
	return out
}
