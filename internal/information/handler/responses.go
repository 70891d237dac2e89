package handler

import (
	"time"

	"thingapi/internal/information/models"
)

// Envelope status values.
const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Envelope is the body of every information response. Failures are reported
// in Status and Message with HTTP 200, except create validation which is 400.
type Envelope struct {
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	Information any    `json:"information,omitempty"`
	Person      any    `json:"person,omitempty"`
}

// InformationResponse is the JSON form of one record. The id is exposed under
// both "_id" and "id".
type InformationResponse struct {
	MongoID      string    `json:"_id"`
	ID           string    `json:"id"`
	Group        string    `json:"group"`
	Thing        string    `json:"thing"`
	Name         string    `json:"name,omitempty"`
	LocationName string    `json:"locationName,omitempty"`
	LocationGeo  []float64 `json:"locationGeo,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toResponse(info *models.Information) *InformationResponse {
	resp := &InformationResponse{
		MongoID:      info.ID,
		ID:           info.ID,
		Group:        info.Group,
		Thing:        info.Thing,
		Name:         info.Name,
		LocationName: info.LocationName,
		CreatedAt:    info.CreatedAt,
		UpdatedAt:    info.UpdatedAt,
	}
	if info.LocationGeo != nil {
		resp.LocationGeo = info.LocationGeo.Slice()
	}
	return resp
}

func toResponses(infos []*models.Information) []*InformationResponse {
	out := make([]*InformationResponse, 0, len(infos))
	for _, info := range infos {
		out = append(out, toResponse(info))
	}
	return out
}

func errorEnvelope(message string) Envelope {
	return Envelope{Status: StatusError, Message: message}
}
