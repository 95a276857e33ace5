package router

import (
	"html/template"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"cloudstash/internal/config"
	"cloudstash/internal/http/handlers"
	"cloudstash/internal/http/middleware"
	"cloudstash/internal/security"
	"cloudstash/internal/shares"
	"cloudstash/internal/storage"
	"cloudstash/internal/store"
)

// Setup wires the handlers into the route table. Routes registered on the
// public router come first; everything on the authenticated subrouter sits
// behind the login gate.
func Setup(
	cfg *config.Config,
	log zerolog.Logger,
	records *store.Store,
	blobs *storage.Paths,
	folders *shares.Service,
	sessions *security.SessionManager,
	templates *template.Template,
) *mux.Router {
	rd := handlers.NewRenderer(templates, sessions, log)
	authHandler := handlers.NewAuthHandler(cfg, records, blobs, sessions, rd)
	fileHandler := handlers.NewFileHandler(cfg, records, blobs, rd)
	sharedHandler := handlers.NewSharedHandler(cfg, records, blobs, folders, rd)

	r := mux.NewRouter()
	r.Use(middleware.Logging(log), middleware.SecureHeaders(cfg.Production()))

	r.HandleFunc("/", authHandler.Index).Methods("GET")
	r.HandleFunc("/register", authHandler.Register).Methods("GET", "POST")
	r.HandleFunc("/login", authHandler.Login).Methods("GET", "POST")
	r.PathPrefix("/static/").Handler(
		http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))

	priv := r.NewRoute().Subrouter()
	priv.Use(middleware.RequireAuth(sessions))

	priv.HandleFunc("/logout", authHandler.Logout).Methods("GET")

	priv.HandleFunc("/storage", fileHandler.Storage).Methods("GET")
	priv.HandleFunc("/upload", fileHandler.Upload).Methods("POST")
	priv.HandleFunc("/download/{filename}", fileHandler.Download).Methods("GET")
	priv.HandleFunc("/delete/{filename}", fileHandler.Delete).Methods("POST")
	priv.HandleFunc("/account", fileHandler.Account).Methods("GET")

	priv.HandleFunc("/shared", sharedHandler.List).Methods("GET")
	priv.HandleFunc("/create_shared_folder", sharedHandler.Create).Methods("POST")
	priv.HandleFunc("/shared/{folderID}", sharedHandler.View).Methods("GET")
	priv.HandleFunc("/upload_to_shared/{folderID}", sharedHandler.Upload).Methods("POST")
	priv.HandleFunc("/download_shared/{folderID}/{filename}", sharedHandler.Download).Methods("GET")
	priv.HandleFunc("/delete_shared/{folderID}/{filename}", sharedHandler.DeleteFile).Methods("POST")
	priv.HandleFunc("/delete_shared_folder/{folderID}", sharedHandler.DeleteFolder).Methods("POST")

	return r
}
