package connect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"
)

// PlaylistServiceName is the fully-qualified name of the playlist service.
const PlaylistServiceName = "fitbox.v1.PlaylistService"

// Procedure paths of the playlist service.
const (
	PlaylistServiceGenerateProcedure   = "/fitbox.v1.PlaylistService/Generate"
	PlaylistServiceSaveProcedure       = "/fitbox.v1.PlaylistService/Save"
	PlaylistServiceListGenresProcedure = "/fitbox.v1.PlaylistService/ListGenres"
	PlaylistServiceFitProcedure        = "/fitbox.v1.PlaylistService/Fit"
)

// NewPlaylistServiceHandler builds an HTTP handler for svc. It returns the
// path prefix to mount the handler on.
func NewPlaylistServiceHandler(svc *PlaylistService, opts ...connect.HandlerOption) (string, http.Handler) {
	generate := connect.NewUnaryHandler(PlaylistServiceGenerateProcedure, svc.Generate, opts...)
	save := connect.NewUnaryHandler(PlaylistServiceSaveProcedure, svc.Save, opts...)
	listGenres := connect.NewUnaryHandler(PlaylistServiceListGenresProcedure, svc.ListGenres, opts...)
	fit := connect.NewUnaryHandler(PlaylistServiceFitProcedure, svc.Fit, opts...)

	return "/" + PlaylistServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PlaylistServiceGenerateProcedure:
			generate.ServeHTTP(w, r)
		case PlaylistServiceSaveProcedure:
			save.ServeHTTP(w, r)
		case PlaylistServiceListGenresProcedure:
			listGenres.ServeHTTP(w, r)
		case PlaylistServiceFitProcedure:
			fit.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// PlaylistServiceClient calls the playlist service.
type PlaylistServiceClient struct {
	generate   *connect.Client[structpb.Struct, structpb.Struct]
	save       *connect.Client[structpb.Struct, structpb.Struct]
	listGenres *connect.Client[structpb.Struct, structpb.Struct]
	fit        *connect.Client[structpb.Struct, structpb.Struct]
}

// NewPlaylistServiceClient creates a client for the service at baseURL.
func NewPlaylistServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PlaylistServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	return &PlaylistServiceClient{
		generate:   connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+PlaylistServiceGenerateProcedure, opts...),
		save:       connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+PlaylistServiceSaveProcedure, opts...),
		listGenres: connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+PlaylistServiceListGenresProcedure, opts...),
		fit:        connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+PlaylistServiceFitProcedure, opts...),
	}
}

// Generate calls PlaylistService.Generate.
func (c *PlaylistServiceClient) Generate(ctx context.Context, req map[string]any) (map[string]any, error) {
	return call(ctx, c.generate, req)
}

// Save calls PlaylistService.Save.
func (c *PlaylistServiceClient) Save(ctx context.Context, req map[string]any) (map[string]any, error) {
	return call(ctx, c.save, req)
}

// ListGenres calls PlaylistService.ListGenres.
func (c *PlaylistServiceClient) ListGenres(ctx context.Context) (map[string]any, error) {
	return call(ctx, c.listGenres, nil)
}

// Fit calls PlaylistService.Fit.
func (c *PlaylistServiceClient) Fit(ctx context.Context, req map[string]any) (map[string]any, error) {
	return call(ctx, c.fit, req)
}

func call(ctx context.Context, client *connect.Client[structpb.Struct, structpb.Struct], req map[string]any) (map[string]any, error) {
	msg, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	resp, err := client.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return nil, err
	}
	return resp.Msg.AsMap(), nil
}
