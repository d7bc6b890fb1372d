package handlers

import (
	"html/template"
	"net/http"

	"github.com/sirupsen/logrus"

	"ytwatch/internal/models"
	"ytwatch/internal/stores"
)

// PageHandler serves the two HTML surfaces: the home page with the playlist
// URL form and recent history, and the watch page that embeds the player.
type PageHandler struct {
	history *stores.HistoryStore
	logger  *logrus.Logger
}

// NewPageHandler creates a new page handler
func NewPageHandler(history *stores.HistoryStore, logger *logrus.Logger) *PageHandler {
	return &PageHandler{history: history, logger: logger}
}

type homePageData struct {
	History []models.PlaylistHistoryEntry
}

type watchPageData struct {
	PlaylistID string
}

// Home handles GET /
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	data := homePageData{History: h.history.List()}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := homeTemplate.Execute(w, data); err != nil {
		h.logger.WithError(err).Error("Failed to render home page")
	}
}

// Watch handles GET /watch?list={playlistID}
func (h *PageHandler) Watch(w http.ResponseWriter, r *http.Request) {
	playlistID := r.URL.Query().Get("list")
	if playlistID == "" {
		http.Error(w, "missing list parameter", http.StatusBadRequest)
		return
	}

	data := watchPageData{PlaylistID: playlistID}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := watchTemplate.Execute(w, data); err != nil {
		h.logger.WithError(err).Error("Failed to render watch page")
	}
}

var homeTemplate = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>ytwatch</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            background: #0f172a;
            color: #e2e8f0;
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
            min-height: 100vh;
            display: flex;
            align-items: center;
            justify-content: center;
        }
        .container { max-width: 640px; width: 100%; padding: 2rem; }
        h1 { font-size: 1.75rem; margin-bottom: 0.5rem; }
        p.tagline { color: #94a3b8; margin-bottom: 2rem; }
        form { display: flex; gap: 0.5rem; margin-bottom: 0.75rem; }
        input[type="text"] {
            flex: 1;
            padding: 0.75rem 1rem;
            border-radius: 8px;
            border: 1px solid #334155;
            background: #1e293b;
            color: #fff;
            font-size: 1rem;
            outline: none;
        }
        input[type="text"]:focus { border-color: #ef4444; }
        button {
            background: #ef4444;
            color: #fff;
            padding: 0.75rem 1.5rem;
            border: none;
            border-radius: 8px;
            font-size: 1rem;
            font-weight: 600;
            cursor: pointer;
        }
        button:hover { opacity: 0.9; }
        .error { color: #ef4444; font-size: 0.875rem; min-height: 1.25rem; margin-bottom: 1.5rem; }
        h2 { font-size: 1rem; color: #94a3b8; margin-bottom: 0.75rem; }
        .history a {
            display: block;
            padding: 0.75rem 1rem;
            border-radius: 8px;
            background: #1e293b;
            color: #e2e8f0;
            text-decoration: none;
            margin-bottom: 0.5rem;
        }
        .history a:hover { background: #334155; }
        .history .channel { color: #94a3b8; font-size: 0.875rem; }
        .empty { color: #64748b; font-size: 0.875rem; }
    </style>
</head>
<body>
    <div class="container">
        <h1>ytwatch</h1>
        <p class="tagline">Paste a YouTube playlist URL to start watching with progress tracking.</p>
        <form id="playlist-form">
            <input type="text" id="playlist-url" placeholder="https://www.youtube.com/playlist?list=..." autofocus>
            <button type="submit">Watch</button>
        </form>
        <div class="error" id="form-error"></div>
        <h2>Recently viewed</h2>
        <div class="history">
            {{range .History}}
            <a href="/watch?list={{.PlaylistID}}">
                <div>{{.Title}}</div>
                <div class="channel">{{.ChannelTitle}}</div>
            </a>
            {{else}}
            <div class="empty">No playlists viewed yet.</div>
            {{end}}
        </div>
    </div>
    <script>
        document.getElementById('playlist-form').addEventListener('submit', function (e) {
            e.preventDefault();
            var url = document.getElementById('playlist-url').value.trim();
            var match = url.match(/[?&]list=([^&#]+)/);
            if (!match) {
                document.getElementById('form-error').textContent = 'No playlist id found in that URL.';
                return;
            }
            window.location.href = '/watch?list=' + encodeURIComponent(match[1]);
        });
    </script>
</body>
</html>
`))

var watchTemplate = template.Must(template.New("watch").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>ytwatch</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            background: #0f172a;
            color: #e2e8f0;
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
            min-height: 100vh;
        }
        .layout { display: flex; min-height: 100vh; }
        .main { flex: 1; display: flex; flex-direction: column; }
        .player-wrap { position: relative; width: 100%; padding-top: 56.25%; background: #000; }
        #player { position: absolute; top: 0; left: 0; width: 100%; height: 100%; }
        .navbar {
            display: flex;
            align-items: center;
            gap: 0.75rem;
            padding: 0.75rem 1rem;
            transition: opacity 0.3s;
        }
        .navbar.hidden { opacity: 0; pointer-events: none; }
        .navbar button {
            background: #1e293b;
            color: #e2e8f0;
            border: 1px solid #334155;
            border-radius: 8px;
            padding: 0.5rem 1rem;
            font-size: 0.875rem;
            cursor: pointer;
        }
        .navbar button:hover:not(:disabled) { background: #334155; }
        .navbar button:disabled { opacity: 0.4; cursor: default; }
        .navbar .title { flex: 1; font-weight: 600; }
        .navbar .count { color: #94a3b8; font-size: 0.875rem; }
        .sidebar {
            width: 360px;
            background: #111c32;
            overflow-y: auto;
            border-left: 1px solid #1e293b;
        }
        .sidebar-header { padding: 1rem; border-bottom: 1px solid #1e293b; }
        .sidebar-header h1 { font-size: 1rem; }
        .sidebar-header .channel { color: #94a3b8; font-size: 0.875rem; }
        .entry {
            display: flex;
            gap: 0.75rem;
            padding: 0.75rem 1rem;
            cursor: pointer;
        }
        .entry:hover { background: #1e293b; }
        .entry.active { background: #1e293b; border-left: 3px solid #ef4444; }
        .entry img { width: 96px; height: 54px; object-fit: cover; border-radius: 4px; background: #000; }
        .entry .meta { flex: 1; min-width: 0; }
        .entry .name {
            font-size: 0.875rem;
            display: -webkit-box;
            -webkit-line-clamp: 2;
            -webkit-box-orient: vertical;
            overflow: hidden;
        }
        .entry .duration { color: #94a3b8; font-size: 0.75rem; margin-top: 0.25rem; }
        .entry .check { color: #22c55e; font-size: 0.875rem; visibility: hidden; }
        .entry.completed .check { visibility: visible; }
        .bar { height: 3px; background: #334155; border-radius: 2px; margin-top: 0.4rem; overflow: hidden; }
        .bar .fill { height: 100%; background: #ef4444; width: 0; }
        .error-overlay {
            position: fixed;
            inset: 0;
            display: none;
            align-items: center;
            justify-content: center;
            background: #0f172a;
            text-align: center;
            padding: 2rem;
        }
        .error-overlay.visible { display: flex; }
        .error-overlay a { color: #ef4444; }
    </style>
</head>
<body data-playlist-id="{{.PlaylistID}}">
    <div class="layout">
        <div class="main">
            <div class="player-wrap"><div id="player"></div></div>
            <div class="navbar" id="navbar">
                <button id="prev-btn">&#8592; Prev</button>
                <button id="next-btn">Next &#8594;</button>
                <div class="title" id="video-title"></div>
                <button id="toggle-btn">Mark watched</button>
                <div class="count" id="completed-count"></div>
            </div>
        </div>
        <div class="sidebar">
            <div class="sidebar-header">
                <h1 id="playlist-title"></h1>
                <div class="channel" id="playlist-channel"></div>
            </div>
            <div id="entries"></div>
        </div>
    </div>
    <div class="error-overlay" id="error-overlay">
        <div>
            <p id="error-message"></p>
            <p><a href="/">Back to home</a></p>
        </div>
    </div>
    <script>
        var playlistId = document.body.dataset.playlistId;
        var sessionId = null;
        var catalog = null;
        var snapshot = null;
        var progress = {};
        var player = null;
        var playerReady = false;
        var hideTimer = null;

        function showError(message) {
            document.getElementById('error-message').textContent = message;
            document.getElementById('error-overlay').classList.add('visible');
        }

        function post(path, body) {
            return fetch(path, {
                method: 'POST',
                headers: { 'Content-Type': 'application/json' },
                body: JSON.stringify(body || {})
            }).then(function (res) {
                return res.json().then(function (data) {
                    if (!res.ok) { throw new Error(data.error || 'request failed'); }
                    return data;
                });
            });
        }

        function fraction(p) {
            if (!p || !p.durationSeconds) { return 0; }
            return Math.min(p.currentTimeSeconds / p.durationSeconds, 1);
        }

        function renderSidebar() {
            var entries = document.getElementById('entries');
            entries.innerHTML = '';
            catalog.videos.forEach(function (video, i) {
                var p = progress[video.id] || {};
                var el = document.createElement('div');
                el.className = 'entry' + (i === snapshot.index ? ' active' : '') + (p.completed ? ' completed' : '');
                el.innerHTML =
                    '<img src="' + video.thumbnailUrl + '" alt="">' +
                    '<div class="meta">' +
                        '<div class="name"></div>' +
                        '<div class="duration">' + video.durationDisplay + '</div>' +
                        '<div class="bar"><div class="fill" style="width:' + (fraction(p) * 100) + '%"></div></div>' +
                    '</div>' +
                    '<div class="check">&#10003;</div>';
                el.querySelector('.name').textContent = video.title;
                el.addEventListener('click', function () {
                    post('/api/sessions/' + sessionId + '/select', { index: i }).then(applySnapshot).catch(function () {});
                });
                entries.appendChild(el);
            });
        }

        function renderNavbar() {
            var video = catalog.videos[snapshot.index];
            document.getElementById('video-title').textContent = video.title;
            document.getElementById('prev-btn').disabled = snapshot.index === 0;
            document.getElementById('next-btn').disabled = snapshot.index === catalog.videos.length - 1;
            var p = progress[video.id] || {};
            document.getElementById('toggle-btn').textContent = p.completed ? 'Mark unwatched' : 'Mark watched';
            document.getElementById('completed-count').textContent =
                snapshot.completedCount + ' / ' + snapshot.totalVideos + ' watched';
        }

        function applySnapshot(data) {
            var previousIndex = snapshot ? snapshot.index : -1;
            snapshot = data.snapshot;
            progress = data.progress;
            renderSidebar();
            renderNavbar();
            if (playerReady && snapshot.index !== previousIndex) {
                loadCurrentVideo();
            }
        }

        function loadCurrentVideo() {
            var video = catalog.videos[snapshot.index];
            var p = progress[video.id] || {};
            var start = 0;
            if (!p.completed && p.currentTimeSeconds > 0 && p.durationSeconds > 0 && p.currentTimeSeconds < p.durationSeconds - 5) {
                start = Math.floor(p.currentTimeSeconds);
            }
            player.loadVideoById({ videoId: video.id, startSeconds: start });
        }

        function playerPosition() {
            if (!playerReady) { return { currentTime: 0, duration: 0 }; }
            return {
                currentTime: player.getCurrentTime() || 0,
                duration: player.getDuration() || 0
            };
        }

        function sendEvent(name) {
            var pos = playerPosition();
            post('/api/sessions/' + sessionId + '/events', {
                event: name,
                currentTime: pos.currentTime,
                duration: pos.duration
            }).then(applySnapshot).catch(function () {});
        }

        function heartbeat() {
            if (!sessionId) { return; }
            post('/api/sessions/' + sessionId + '/heartbeat', playerPosition())
                .then(applySnapshot)
                .catch(function () {});
        }

        function scheduleNavbarHide() {
            var navbar = document.getElementById('navbar');
            navbar.classList.remove('hidden');
            if (hideTimer) { clearTimeout(hideTimer); }
            hideTimer = setTimeout(function () { navbar.classList.add('hidden'); }, 3000);
        }

        window.onYouTubeIframeAPIReady = function () {
            player = new YT.Player('player', {
                playerVars: { autoplay: 0, rel: 0 },
                events: {
                    onReady: function () {
                        playerReady = true;
                        loadCurrentVideo();
                    },
                    onStateChange: function (e) {
                        if (e.data === YT.PlayerState.PLAYING) { sendEvent('playing'); }
                        else if (e.data === YT.PlayerState.PAUSED) { sendEvent('paused'); }
                        else if (e.data === YT.PlayerState.ENDED) { sendEvent('ended'); }
                    }
                }
            });
        };

        document.getElementById('prev-btn').addEventListener('click', function () {
            post('/api/sessions/' + sessionId + '/navigate', { direction: 'previous' })
                .then(applySnapshot).catch(function () {});
        });
        document.getElementById('next-btn').addEventListener('click', function () {
            post('/api/sessions/' + sessionId + '/navigate', { direction: 'next' })
                .then(applySnapshot).catch(function () {});
        });
        document.getElementById('toggle-btn').addEventListener('click', function () {
            var video = catalog.videos[snapshot.index];
            var p = progress[video.id] || {};
            post('/api/progress/' + video.id + '/completed', { completed: !p.completed })
                .then(function () { return heartbeat(); })
                .catch(function () {});
        });
        document.addEventListener('mousemove', scheduleNavbarHide);
        document.addEventListener('keydown', scheduleNavbarHide);
        window.addEventListener('beforeunload', function () {
            if (sessionId) {
                navigator.sendBeacon && fetch('/api/sessions/' + sessionId, { method: 'DELETE', keepalive: true });
            }
        });

        post('/api/sessions', { playlistId: playlistId })
            .then(function (data) {
                sessionId = data.sessionId;
                catalog = data.catalog;
                document.getElementById('playlist-title').textContent = catalog.title;
                document.getElementById('playlist-channel').textContent = catalog.channelTitle;
                document.title = catalog.title + ' - ytwatch';
                applySnapshot({ snapshot: data.snapshot, progress: data.progress });
                var tag = document.createElement('script');
                tag.src = 'https://www.youtube.com/iframe_api';
                document.head.appendChild(tag);
                setInterval(heartbeat, 1000);
                scheduleNavbarHide();
            })
            .catch(function (err) { showError(err.message); });
    </script>
</body>
</html>
`))
