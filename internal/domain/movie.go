package domain

// Movie is a catalog list entry as served by the upstream movie API.
type Movie struct {
	ID             string `json:"_id"`
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	OriginName     string `json:"origin_name"`
	PosterURL      string `json:"poster_url"`
	ThumbURL       string `json:"thumb_url"`
	Year           int    `json:"year"`
	EpisodeCurrent string `json:"episode_current"`
	Quality        string `json:"quality,omitempty"`
	Lang           string `json:"lang,omitempty"`
}

type Taxon struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Genre struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type MovieInfo struct {
	Movie
	Content      string   `json:"content"`
	Type         string   `json:"type"`
	Status       string   `json:"status"`
	Time         string   `json:"time"`
	EpisodeTotal string   `json:"episode_total"`
	Actor        []string `json:"actor"`
	Director     []string `json:"director"`
	Category     []Taxon  `json:"category"`
	Country      []Taxon  `json:"country"`
}

type Episode struct {
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Filename  string `json:"filename"`
	LinkEmbed string `json:"link_embed"`
	LinkM3U8  string `json:"link_m3u8"`
}

// Server is one streaming source with its own episode list.
type Server struct {
	ServerName string    `json:"server_name"`
	Episodes   []Episode `json:"server_data"`
}

type MovieDetail struct {
	Movie    MovieInfo `json:"movie"`
	Episodes []Server  `json:"episodes"`
}

// Selection picks a 1-based server and episode, as the watch page does with
// its ss and ep query parameters.
func (d *MovieDetail) Selection(server, episode int) (*Server, *Episode, bool) {
	if server < 1 || server > len(d.Episodes) {
		return nil, nil, false
	}
	srv := &d.Episodes[server-1]
	if episode < 1 || episode > len(srv.Episodes) {
		return nil, nil, false
	}
	return srv, &srv.Episodes[episode-1], true
}
