package rest

const (
	StatusServing    = "SERVING"
	StatusNotServing = "NOT_SERVING"
)

type HealthResponse struct {
	Status  string `json:"status"`
	PoolID  string `json:"pool_id"`
	Name    string `json:"name"`
	State   string `json:"state"`
	Workers int    `json:"workers"`
	Alive   int    `json:"alive"`
	Pending int    `json:"pending"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}
