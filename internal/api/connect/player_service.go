package connect

import (
	"context"
	"net/http"
	"sync"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/boombox/internal/app/notification"
	"github.com/osa030/boombox/internal/app/playback"
	"github.com/osa030/boombox/internal/domain/playlist"
	"github.com/osa030/boombox/internal/domain/song"
)

// PlayerServiceName is the fully-qualified name of the remote-control service.
const PlayerServiceName = "boombox.v1.PlayerService"

// Procedure paths.
const (
	PlayerServiceGetSnapshotProcedure     = "/boombox.v1.PlayerService/GetSnapshot"
	PlayerServiceListCatalogProcedure     = "/boombox.v1.PlayerService/ListCatalog"
	PlayerServiceSubscribeProcedure       = "/boombox.v1.PlayerService/Subscribe"
	PlayerServicePlayProcedure            = "/boombox.v1.PlayerService/Play"
	PlayerServicePauseProcedure           = "/boombox.v1.PlayerService/Pause"
	PlayerServiceStopProcedure            = "/boombox.v1.PlayerService/Stop"
	PlayerServiceNextProcedure            = "/boombox.v1.PlayerService/Next"
	PlayerServicePreviousProcedure        = "/boombox.v1.PlayerService/Previous"
	PlayerServiceSeekProcedure            = "/boombox.v1.PlayerService/Seek"
	PlayerServiceToggleShuffleProcedure   = "/boombox.v1.PlayerService/ToggleShuffle"
	PlayerServiceChangeVolumeProcedure    = "/boombox.v1.PlayerService/ChangeVolume"
	PlayerServiceChangePlaylistProcedure  = "/boombox.v1.PlayerService/ChangePlaylist"
	PlayerServiceCreatePlaylistProcedure  = "/boombox.v1.PlayerService/CreatePlaylist"
	PlayerServiceDeletePlaylistProcedure  = "/boombox.v1.PlayerService/DeletePlaylist"
	PlayerServiceSelectSongProcedure      = "/boombox.v1.PlayerService/SelectSong"
	PlayerServiceDeselectSongProcedure    = "/boombox.v1.PlayerService/DeselectSong"
	PlayerServiceCommitSelectionProcedure = "/boombox.v1.PlayerService/CommitSelection"
	PlayerServiceRequestDeleteProcedure   = "/boombox.v1.PlayerService/RequestDelete"
	PlayerServiceConfirmDeleteProcedure   = "/boombox.v1.PlayerService/ConfirmDelete"
	PlayerServiceCancelDeleteProcedure    = "/boombox.v1.PlayerService/CancelDelete"
)

// InitialStateEvent names the first notification of every subscription.
const InitialStateEvent = "initial_state"

var readOnlyProcedures = map[string]bool{
	PlayerServiceGetSnapshotProcedure: true,
	PlayerServiceListCatalogProcedure: true,
	PlayerServiceSubscribeProcedure:   true,
}

func isReadOnly(procedure string) bool {
	return readOnlyProcedures[procedure]
}

// PlayerService exposes the playback controller over Connect.
type PlayerService struct {
	controller    *playback.Controller
	notifications *notification.Manager

	closeOnce sync.Once
	done      chan struct{}
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(controller *playback.Controller, notifications *notification.Manager) *PlayerService {
	return &PlayerService{
		controller:    controller,
		notifications: notifications,
		done:          make(chan struct{}),
	}
}

// Close ends every open subscription.
func (s *PlayerService) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

type unaryFunc = func(context.Context, *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error)

// NewPlayerServiceHandler builds an HTTP handler serving every procedure of the service.
// It returns the path on which to mount the handler.
func NewPlayerServiceHandler(svc *PlayerService, opts ...connect.HandlerOption) (string, http.Handler) {
	unary := map[string]unaryFunc{
		PlayerServiceGetSnapshotProcedure:     svc.GetSnapshot,
		PlayerServiceListCatalogProcedure:     svc.ListCatalog,
		PlayerServicePlayProcedure:            svc.transport((*playback.Controller).Play),
		PlayerServicePauseProcedure:           svc.transport((*playback.Controller).Pause),
		PlayerServiceStopProcedure:            svc.transport((*playback.Controller).Stop),
		PlayerServiceNextProcedure:            svc.transport((*playback.Controller).Next),
		PlayerServicePreviousProcedure:        svc.transport((*playback.Controller).Previous),
		PlayerServiceSeekProcedure:            svc.intent(svc.seek),
		PlayerServiceToggleShuffleProcedure:   svc.intent(svc.toggleShuffle),
		PlayerServiceChangeVolumeProcedure:    svc.intent(svc.changeVolume),
		PlayerServiceChangePlaylistProcedure:  svc.intent(svc.changePlaylist),
		PlayerServiceCreatePlaylistProcedure:  svc.CreatePlaylist,
		PlayerServiceDeletePlaylistProcedure:  svc.intent(svc.deletePlaylist),
		PlayerServiceSelectSongProcedure:      svc.intent(svc.selectSong),
		PlayerServiceDeselectSongProcedure:    svc.intent(svc.deselectSong),
		PlayerServiceCommitSelectionProcedure: svc.CommitSelection,
		PlayerServiceRequestDeleteProcedure:   svc.intent(svc.requestDelete),
		PlayerServiceConfirmDeleteProcedure:   svc.intent(svc.confirmDelete),
		PlayerServiceCancelDeleteProcedure:    svc.intent(svc.cancelDelete),
	}

	mux := http.NewServeMux()
	for procedure, fn := range unary {
		mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, opts...))
	}
	mux.Handle(PlayerServiceSubscribeProcedure, connect.NewServerStreamHandler(
		PlayerServiceSubscribeProcedure, svc.Subscribe, opts...,
	))

	return "/" + PlayerServiceName + "/", mux
}

// GetSnapshot returns the current controller snapshot.
func (s *PlayerService) GetSnapshot(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	return s.snapshotResponse(nil)
}

// ListCatalog returns every known song.
func (s *PlayerService) ListCatalog(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	msg, err := structpb.NewStruct(map[string]any{
		"songs": songList(s.controller.Catalog()),
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

// CreatePlaylist creates a playlist from the listed song IDs.
func (s *PlayerService) CreatePlaylist(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	name := req.Msg.GetFields()["name"].GetStringValue()
	ids, err := stringListField(req.Msg, "song_ids")
	if err != nil {
		return nil, err
	}
	songs, err := s.resolveSongs(ids)
	if err != nil {
		return nil, toConnectError(err)
	}

	created, err := s.controller.CreatePlaylist(name, songs)
	if err != nil {
		return nil, toConnectError(err)
	}
	return s.snapshotResponse(&created)
}

// CommitSelection turns the draft selection into a playlist.
func (s *PlayerService) CommitSelection(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	created, err := s.controller.CommitSelection(req.Msg.GetFields()["name"].GetStringValue())
	if err != nil {
		return nil, toConnectError(err)
	}
	return s.snapshotResponse(&created)
}

// Subscribe streams the current state followed by every controller notification.
func (s *PlayerService) Subscribe(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
	stream *connect.ServerStream[structpb.Struct],
) error {
	adapter := &notificationStreamAdapter{stream: stream}

	initial := &notification.Notification{
		SequenceNo: s.notifications.NextSequenceNo(),
		Event:      InitialStateEvent,
		Snapshot:   s.controller.Snapshot(),
	}
	if err := adapter.Send(initial); err != nil {
		return err
	}

	subscriptionID := s.notifications.Subscribe(adapter)
	defer s.notifications.Unsubscribe(subscriptionID)

	select {
	case <-ctx.Done():
	case <-s.done:
	}
	return nil
}

// transport adapts a transport intent.
func (s *PlayerService) transport(fn func(*playback.Controller, context.Context)) unaryFunc {
	return s.intent(func(ctx context.Context, _ *structpb.Struct) error {
		fn(s.controller, ctx)
		return nil
	})
}

// intent runs fn and replies with the fresh snapshot. Intents outlive the request so a
// client disconnect never aborts a load half way.
func (s *PlayerService) intent(fn func(context.Context, *structpb.Struct) error) unaryFunc {
	return func(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
		if err := fn(context.WithoutCancel(ctx), req.Msg); err != nil {
			return nil, toConnectError(err)
		}
		return s.snapshotResponse(nil)
	}
}

func (s *PlayerService) seek(ctx context.Context, msg *structpb.Struct) error {
	ms, err := numberField(msg, "position_ms")
	if err != nil {
		return err
	}
	s.controller.Seek(ctx, time.Duration(ms)*time.Millisecond)
	return nil
}

func (s *PlayerService) toggleShuffle(context.Context, *structpb.Struct) error {
	s.controller.ToggleShuffle()
	return nil
}

func (s *PlayerService) changeVolume(ctx context.Context, msg *structpb.Struct) error {
	delta, err := numberField(msg, "delta")
	if err != nil {
		return err
	}
	s.controller.ChangeVolume(ctx, delta)
	return nil
}

func (s *PlayerService) changePlaylist(ctx context.Context, msg *structpb.Struct) error {
	id, err := stringField(msg, "id")
	if err != nil {
		return err
	}
	return s.controller.ChangePlaylist(ctx, id)
}

func (s *PlayerService) deletePlaylist(ctx context.Context, msg *structpb.Struct) error {
	id, err := stringField(msg, "id")
	if err != nil {
		return err
	}
	return s.controller.DeletePlaylist(ctx, id)
}

func (s *PlayerService) selectSong(_ context.Context, msg *structpb.Struct) error {
	id, err := stringField(msg, "id")
	if err != nil {
		return err
	}
	return s.controller.SelectSong(id)
}

func (s *PlayerService) deselectSong(_ context.Context, msg *structpb.Struct) error {
	id, err := stringField(msg, "id")
	if err != nil {
		return err
	}
	s.controller.DeselectSong(id)
	return nil
}

func (s *PlayerService) requestDelete(_ context.Context, msg *structpb.Struct) error {
	id, err := stringField(msg, "id")
	if err != nil {
		return err
	}
	return s.controller.RequestDelete(id)
}

func (s *PlayerService) confirmDelete(ctx context.Context, _ *structpb.Struct) error {
	return s.controller.ConfirmDelete(ctx)
}

func (s *PlayerService) cancelDelete(context.Context, *structpb.Struct) error {
	s.controller.CancelDelete()
	return nil
}

// resolveSongs maps song IDs onto catalog songs, keeping the requested order.
func (s *PlayerService) resolveSongs(ids []string) ([]song.Song, error) {
	byID := lo.KeyBy(s.controller.Catalog(), func(x song.Song) string { return x.ID })

	songs := make([]song.Song, 0, len(ids))
	for _, id := range ids {
		x, ok := byID[id]
		if !ok {
			return nil, errors.Wrapf(playback.ErrSongNotFound, "song %q", id)
		}
		songs = append(songs, x)
	}
	return songs, nil
}

// snapshotResponse replies with the fresh snapshot, plus the created playlist when given.
func (s *PlayerService) snapshotResponse(created *playlist.Playlist) (*connect.Response[structpb.Struct], error) {
	value := snapshotValue(s.controller.Snapshot())
	if created != nil {
		value["created"] = playlistValue(*created)
	}

	msg, err := structpb.NewStruct(value)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

// notificationStreamAdapter adapts connect.ServerStream to notification.Stream.
// Sends are serialized because a timed-out broadcast may still be writing.
type notificationStreamAdapter struct {
	mu     sync.Mutex
	stream *connect.ServerStream[structpb.Struct]
}

func (a *notificationStreamAdapter) Send(n *notification.Notification) error {
	msg, err := notificationStruct(n)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stream.Send(msg)
}
