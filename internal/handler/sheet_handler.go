package handler

import (
	"io"
	"net/http"
	"os"

	"backend/internal/sheets"

	"github.com/gin-gonic/gin"
)

// SheetProxyConfig holds the spreadsheet data-source settings. Any value may
// be empty; the affected endpoint then answers 501 instead of failing hard.
type SheetProxyConfig struct {
	SheetID            string
	ProductsGID        string
	OrdersGID          string
	ProductsWebhookURL string
	OrdersWebhookURL   string
}

// SheetProxyConfigFromEnv reads the recognised environment options
func SheetProxyConfigFromEnv() SheetProxyConfig {
	return SheetProxyConfig{
		SheetID:            os.Getenv("SHEET_ID"),
		ProductsGID:        os.Getenv("PRODUCTS_GID"),
		OrdersGID:          os.Getenv("ORDERS_GID"),
		ProductsWebhookURL: os.Getenv("PRODUCTS_WEBHOOK_URL"),
		OrdersWebhookURL:   os.Getenv("ORDERS_WEBHOOK_URL"),
	}
}

// SheetHandler proxies the spreadsheet-backed variant of the data source:
// GET serves the published CSV export as JSON, POST forwards writes to a
// configured webhook. Responses are bare JSON (no envelope) so existing
// spreadsheet clients keep working unchanged.
type SheetHandler struct {
	client *sheets.Client
	cfg    SheetProxyConfig
}

func NewSheetHandler(client *sheets.Client, cfg SheetProxyConfig) *SheetHandler {
	return &SheetHandler{client: client, cfg: cfg}
}

func (h *SheetHandler) RegisterRoutes(router *gin.RouterGroup) {
	proxy := router.Group("/api/sheets")
	proxy.Any("/products", h.Products)
	proxy.Any("/orders", h.Orders)
}

// Products proxies the products sheet tab
// @Summary      Spreadsheet products proxy
// @Description  GET returns the products tab as a JSON array; POST forwards the body to the products webhook
// @Tags         sheets
// @Accept       json
// @Produce      json
// @Success      200  {array}   object
// @Failure      501  {object}  object
// @Failure      500  {object}  object
// @Router       /api/sheets/products [get]
func (h *SheetHandler) Products(c *gin.Context) {
	h.proxy(c, sheetEndpoint{
		gid:           h.cfg.ProductsGID,
		webhookURL:    h.cfg.ProductsWebhookURL,
		numericFields: []string{"stock", "price"},
		errNoSheet:    "ยังไม่ได้ตั้งค่าการเชื่อมต่อกับ Google Sheets",
		errNoWebhook:  "ยังไม่ได้ตั้งค่าการเชื่อมต่อสำหรับบันทึกข้อมูล",
		errFetch:      "ไม่สามารถโหลดข้อมูลสินค้าได้",
		errWrite:      "บันทึกข้อมูลสินค้าไม่สำเร็จ",
	})
}

// Orders proxies the orders sheet tab
// @Summary      Spreadsheet orders proxy
// @Description  GET returns the orders tab as a JSON array; POST forwards the body to the orders webhook
// @Tags         sheets
// @Accept       json
// @Produce      json
// @Success      200  {array}   object
// @Failure      501  {object}  object
// @Failure      500  {object}  object
// @Router       /api/sheets/orders [get]
func (h *SheetHandler) Orders(c *gin.Context) {
	h.proxy(c, sheetEndpoint{
		gid:           h.cfg.OrdersGID,
		webhookURL:    h.cfg.OrdersWebhookURL,
		numericFields: []string{"quantity", "total"},
		errNoSheet:    "ยังไม่ได้ตั้งค่า Google Sheet ID สำหรับการโหลดข้อมูล",
		errNoWebhook:  "ยังไม่ได้ตั้งค่า ORDERS_WEBHOOK_URL สำหรับบันทึกข้อมูล",
		errFetch:      "ไม่สามารถโหลดข้อมูลคำสั่งซื้อได้",
		errWrite:      "บันทึกข้อมูลคำสั่งซื้อไม่สำเร็จ",
	})
}

type sheetEndpoint struct {
	gid           string
	webhookURL    string
	numericFields []string
	errNoSheet    string
	errNoWebhook  string
	errFetch      string
	errWrite      string
}

func (h *SheetHandler) proxy(c *gin.Context, ep sheetEndpoint) {
	c.Header("Access-Control-Allow-Origin", "*")

	switch c.Request.Method {
	case http.MethodOptions:
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Status(http.StatusOK)

	case http.MethodGet:
		if h.cfg.SheetID == "" || ep.gid == "" {
			c.JSON(http.StatusNotImplemented, gin.H{"error": ep.errNoSheet})
			return
		}
		records, err := h.client.FetchRecords(c.Request.Context(), ep.gid, ep.numericFields)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": ep.errFetch, "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, records)

	case http.MethodPost:
		if ep.webhookURL == "" {
			c.JSON(http.StatusNotImplemented, gin.H{"error": ep.errNoWebhook})
			return
		}
		body, err := io.ReadAll(c.Request.Body)
		if err != nil || len(body) == 0 {
			body = []byte("{}")
		}
		data, err := h.client.ForwardWrite(c.Request.Context(), ep.webhookURL, body)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": ep.errWrite, "details": err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/json", data)

	default:
		c.Header("Allow", "GET, POST, OPTIONS")
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method Not Allowed"})
	}
}
