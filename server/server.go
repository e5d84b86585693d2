package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/menudrop/orderdesk/handlers"
	"github.com/menudrop/orderdesk/middlewares"
	"github.com/menudrop/orderdesk/models"
)

type Server struct {
	Router *mux.Router
	server *http.Server
}

const (
	readTimeout       = 5 * time.Minute
	readHeaderTimeout = 30 * time.Second
	writeTimeout      = 5 * time.Minute
)

func SetupRoutes() *Server {
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"alive": true}`)
	}).Methods("GET")

	router.HandleFunc("/register", handlers.Register).Methods("POST")
	router.HandleFunc("/login", handlers.Login).Methods("POST")
	router.HandleFunc("/refresh", handlers.RefreshToken).Methods("POST")

	// Public ordering flow: diners submit and track without an account.
	router.HandleFunc("/submit-order", handlers.SubmitOrder).Methods("POST")
	router.HandleFunc("/public-order", handlers.GetPublicOrder).Methods("GET")

	authRoutes := router.PathPrefix("/api").Subrouter()
	authRoutes.Use(middlewares.AuthMiddleware)

	authRoutes.HandleFunc("/logout", handlers.Logout).Methods("POST")
	authRoutes.HandleFunc("/orders", handlers.ListOrders).Methods("GET")
	authRoutes.HandleFunc("/orders/{id}/status", handlers.UpdateOrderStatus).Methods("PATCH")
	authRoutes.HandleFunc("/menu-items", handlers.ListMenuItems).Methods("GET")
	authRoutes.HandleFunc("/promotions", handlers.ListPromotions).Methods("GET")

	// owner only
	owner := authRoutes.PathPrefix("/admin").Subrouter()
	owner.Use(middlewares.RoleBasedMiddleware(models.RoleOwner))

	owner.HandleFunc("/team", handlers.CreateTeamMember).Methods("POST")
	owner.HandleFunc("/team", handlers.ListTeamMembers).Methods("GET")
	owner.HandleFunc("/team", handlers.RemoveTeamMember).Methods("DELETE")
	owner.HandleFunc("/menu-items", handlers.CreateMenuItem).Methods("POST")
	owner.HandleFunc("/promotions", handlers.CreatePromotion).Methods("POST")
	owner.HandleFunc("/promotions/{id}", handlers.TogglePromotion).Methods("PATCH")

	return &Server{
		Router: router,
	}
}

func (svr *Server) Run(port string) error {
	svr.server = &http.Server{
		Addr:              port,
		Handler:           svr.Router,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}
	return svr.server.ListenAndServe()
}

func (svr *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return svr.server.Shutdown(ctx)
}
