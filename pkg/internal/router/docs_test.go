package router_test

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filesort/pkg/internal/router"
)

var routerAnnotation = regexp.MustCompile(`@Router\s+(\S+)\s+\[(\w+)\]`)

// 处理器注释里的 @Router 必须和实际注册的路由一致.
func TestHandlerAnnotationsMatchRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	router.RegisterUploadRoute(r, &stubUpload{})
	router.RegisterHealthCheckRoute(r)
	router.RegisterSchedulerRoutes(r)

	registered := make(map[string]bool)
	for _, ri := range r.Routes() {
		registered[ri.Method+" "+ri.Path] = true
	}

	files, err := filepath.Glob(filepath.Join("..", "handle", "*.go"))
	if err != nil {
		t.Fatalf("glob handlers: %v", err)
	}

	documented := 0

	for _, name := range files {
		if strings.HasSuffix(name, "_test.go") {
			continue
		}

		src, err := os.ReadFile(name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}

		for _, m := range routerAnnotation.FindAllStringSubmatch(string(src), -1) {
			documented++

			// swag 的 {name} 对应 gin 的 :name
			p := regexp.MustCompile(`\{(\w+)\}`).ReplaceAllString(m[1], ":$1")
			key := strings.ToUpper(m[2]) + " " + p

			if !registered[key] {
				t.Errorf("%s documents %s, which is not registered", filepath.Base(name), key)
			}

			delete(registered, key)
		}
	}

	if documented == 0 {
		t.Fatal("no @Router annotations found")
	}

	for key := range registered {
		// HEAD 与 GET 共用同一个处理器
		if strings.HasPrefix(key, "HEAD ") {
			continue
		}

		t.Errorf("route %s has no @Router annotation", key)
	}
}
