package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jupiterbrains/kyc-platform/services/mock-erp/internal/mock"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8069"
	}

	r := gin.Default()

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Odoo-compatible JSON-RPC endpoints
	web := r.Group("/web")
	{
		web.POST("/database/list", handleDatabaseList)
		web.POST("/session/authenticate", handleAuthenticate)
		web.POST("/dataset/call_kw", handleCallKW)
	}

	addr := fmt.Sprintf(":%s", port)
	log.Printf("Starting Mock ERP server on %s", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}

func handleDatabaseList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"result": []string{"demo"}})
}

func handleAuthenticate(c *gin.Context) {
	var req struct {
		Params struct {
			DB       string `json:"db"`
			Login    string `json:"login"`
			Password string `json:"password"`
		} `json:"params"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "invalid request"}})
		return
	}
	if req.Params.Login == "" || req.Params.Password == "" {
		c.JSON(http.StatusOK, gin.H{"result": gin.H{"uid": 0}})
		return
	}

	c.SetCookie("session_id", uuid.NewString(), 3600, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"result": gin.H{"uid": 2, "db": req.Params.DB, "username": req.Params.Login}})
}

func handleCallKW(c *gin.Context) {
	if session, err := c.Cookie("session_id"); err != nil || session == "" {
		c.JSON(http.StatusOK, gin.H{"error": gin.H{"message": "Session expired"}})
		return
	}

	var req struct {
		Params struct {
			Model  string         `json:"model"`
			Method string         `json:"method"`
			Args   []any          `json:"args"`
			KWArgs map[string]any `json:"kwargs"`
		} `json:"params"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "invalid request"}})
		return
	}

	switch req.Params.Method {
	case "create":
		data, ok := firstArgObject(req.Params.Args)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"error": gin.H{"message": "create expects a values object"}})
			return
		}
		id, err := mock.Create(req.Params.Model, data)
		respond(c, id, err)

	case "search_read":
		domain, _ := firstArgList(req.Params.Args)
		fields := stringList(req.Params.KWArgs["fields"])
		records, err := mock.SearchRead(req.Params.Model, domain, fields)
		respond(c, records, err)

	case "write":
		if len(req.Params.Args) < 2 {
			c.JSON(http.StatusOK, gin.H{"error": gin.H{"message": "write expects ids and values"}})
			return
		}
		ids := intList(req.Params.Args[0])
		data, _ := req.Params.Args[1].(map[string]any)
		ok, err := mock.Write(req.Params.Model, ids, data)
		respond(c, ok, err)

	case "unlink":
		ids := intList(firstArg(req.Params.Args))
		ok, err := mock.Unlink(req.Params.Model, ids)
		respond(c, ok, err)

	default:
		c.JSON(http.StatusOK, gin.H{"error": gin.H{"message": fmt.Sprintf("unsupported method %q", req.Params.Method)}})
	}
}

func respond(c *gin.Context, result any, err error) {
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": gin.H{"message": err.Error()}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

func firstArg(args []any) any {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}

func firstArgObject(args []any) (map[string]any, bool) {
	obj, ok := firstArg(args).(map[string]any)
	return obj, ok
}

func firstArgList(args []any) ([]any, bool) {
	list, ok := firstArg(args).([]any)
	return list, ok
}

func stringList(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func intList(v any) []int {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(raw))
	for _, item := range raw {
		switch n := item.(type) {
		case float64:
			out = append(out, int(n))
		case int:
			out = append(out, n)
		}
	}
	return out
}
