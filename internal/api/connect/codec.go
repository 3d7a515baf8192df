package connect

import (
	"math"
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

// Messages are google.protobuf.Struct values; these helpers map domain values to plain maps.

func songValue(s song.Song) map[string]any {
	return map[string]any{
		"id":          s.ID,
		"title":       s.Title,
		"artist":      s.Artist,
		"duration_ms": s.Duration.Milliseconds(),
		"source":      s.Source,
		"glyph":       s.Glyph,
	}
}

func songList(songs []song.Song) []any {
	return lo.Map(songs, func(s song.Song, _ int) any { return songValue(s) })
}

func playlistSummary(p playlist.Playlist) map[string]any {
	return map[string]any{
		"id":                p.ID,
		"name":              p.Name,
		"default":           p.IsDefault(),
		"song_count":        p.Len(),
		"total_duration_ms": p.TotalDuration().Milliseconds(),
		"created_at":        p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func playlistValue(p playlist.Playlist) map[string]any {
	v := playlistSummary(p)
	v["songs"] = songList(p.Songs)
	return v
}

func snapshotValue(s playback.Snapshot) map[string]any {
	v := map[string]any{
		"state":          s.State.String(),
		"loaded":         s.Loaded,
		"playing":        s.Playing,
		"buffering":      s.Buffering,
		"position_ms":    s.Position.Milliseconds(),
		"duration_ms":    s.Duration.Milliseconds(),
		"position":       song.FormatClock(s.Position),
		"duration":       song.FormatClock(s.Duration),
		"volume":         s.Volume,
		"shuffle":        s.Shuffle,
		"shuffle_order":  lo.Map(s.ShuffleOrder, func(i int, _ int) any { return i }),
		"playlist":       playlistValue(s.Playlist),
		"index":          s.Index,
		"song":           nil,
		"playlists":      lo.Map(s.Playlists, func(p playlist.Playlist, _ int) any { return playlistSummary(p) }),
		"selected":       songList(s.Selected),
		"pending_delete": nil,
	}
	if s.Song != nil {
		v["song"] = songValue(*s.Song)
	}
	if s.PendingDelete != nil {
		v["pending_delete"] = playlistSummary(*s.PendingDelete)
	}
	return v
}

func notificationStruct(n *notification.Notification) (*structpb.Struct, error) {
	msg, err := structpb.NewStruct(map[string]any{
		"sequence_no": n.SequenceNo,
		"event":       n.Event,
		"snapshot":    snapshotValue(n.Snapshot),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode notification")
	}
	return msg, nil
}

// stringField returns a required non-empty string field.
func stringField(msg *structpb.Struct, key string) (string, error) {
	v, ok := msg.GetFields()[key]
	if !ok {
		return "", connect.NewError(connect.CodeInvalidArgument, errors.Newf("%s is required", key))
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok || s.StringValue == "" {
		return "", connect.NewError(connect.CodeInvalidArgument, errors.Newf("%s must be a non-empty string", key))
	}
	return s.StringValue, nil
}

// numberField returns a required finite number field.
func numberField(msg *structpb.Struct, key string) (float64, error) {
	v, ok := msg.GetFields()[key]
	if !ok {
		return 0, connect.NewError(connect.CodeInvalidArgument, errors.Newf("%s is required", key))
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, connect.NewError(connect.CodeInvalidArgument, errors.Newf("%s must be a number", key))
	}
	if math.IsNaN(n.NumberValue) || math.IsInf(n.NumberValue, 0) {
		return 0, connect.NewError(connect.CodeInvalidArgument, errors.Newf("%s must be finite", key))
	}
	return n.NumberValue, nil
}

// stringListField returns a list of strings; a missing field is an empty list.
func stringListField(msg *structpb.Struct, key string) ([]string, error) {
	v, ok := msg.GetFields()[key]
	if !ok {
		return nil, nil
	}
	list := v.GetListValue()
	if list == nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.Newf("%s must be a list", key))
	}

	out := make([]string, 0, len(list.GetValues()))
	for _, item := range list.GetValues() {
		s, ok := item.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, connect.NewError(connect.CodeInvalidArgument, errors.Newf("%s must contain strings", key))
		}
		out = append(out, s.StringValue)
	}
	return out, nil
}

// toConnectError maps controller errors onto Connect codes.
func toConnectError(err error) error {
	var cerr *connect.Error
	switch {
	case errors.As(err, &cerr):
		return cerr
	case errors.Is(err, playback.ErrBlankName), errors.Is(err, playback.ErrEmptySelection):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, playback.ErrPlaylistNotFound), errors.Is(err, playback.ErrSongNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, playback.ErrDefaultPlaylist), errors.Is(err, playback.ErrNoPendingDelete):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
