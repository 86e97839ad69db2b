package market

// 市场接口的请求/响应结构（JSON）

const successErrorNo = "00"

type envelope struct {
	ErrorNo  string `json:"errorNo"`
	ErrorMsg string `json:"errorMsg"`
}

type listRequest struct {
	PageNo         int      `json:"pageNo"`
	PageSize       int      `json:"pageSize"`
	QuerySortType  string   `json:"querySortType"`
	PetIDs         []string `json:"petIds"`
	LastAmount     *string  `json:"lastAmount"`
	LastRareDegree *int     `json:"lastRareDegree"`
	RequestID      int64    `json:"requestId"`
	AppID          int      `json:"appId"`
	Tpl            string   `json:"tpl"`
}

type listResponse struct {
	envelope
	Data *struct {
		PetsOnSale []petOnSale `json:"petsOnSale"`
		TotalCount int         `json:"totalCount"`
		HasData    bool        `json:"hasData"`
	} `json:"data"`
}

type petOnSale struct {
	ID         string `json:"id"`
	PetID      string `json:"petId"`
	Amount     string `json:"amount"`
	RareDegree int    `json:"rareDegree"`
	Generation int    `json:"generation"`
	ValidCode  string `json:"validCode"`
	Desc       string `json:"desc"`
}

type createOrderRequest struct {
	PetID     string `json:"petId"`
	Amount    string `json:"amount"`
	ValidCode string `json:"validCode"`
	RequestID int64  `json:"requestId"`
	AppID     int    `json:"appId"`
	Tpl       string `json:"tpl"`
}

type createOrderResponse struct {
	envelope
}
