package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/leandro-lugaresi/hub"

	"github.com/sfarevalo/immich-tv/internal/domain"
	"github.com/sfarevalo/immich-tv/internal/service"
)

type view int

const (
	viewMenu view = iota
	viewAssets
	viewAlbums
	viewPeople
	viewFolders
	viewTimeline
	viewDetail
)

// URLBuilder turns assets into server URLs a TV browser or external viewer
// can open directly.
type URLBuilder interface {
	ThumbnailURL(assetID, size string) string
	FileURL(asset domain.Asset) string
	SignURL(raw string) string
}

// menu entries
type menuItem struct {
	name string
	desc string
}

func (i menuItem) Title() string       { return i.name }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.name }

type assetItem struct {
	asset domain.Asset
}

func (i assetItem) Title() string {
	title := i.asset.OriginalFileName
	if title == "" {
		title = i.asset.ID
	}
	if i.asset.IsFavorite {
		title += " " + favoriteStyle.Render("♥")
	}
	return title
}

func (i assetItem) Description() string {
	desc := i.asset.CapturedAt().Format("2006-01-02 15:04")
	if i.asset.AlbumName != "" {
		desc += " · " + i.asset.AlbumName
	}
	if i.asset.IsVideo() {
		desc += " · video"
	}
	return desc
}

func (i assetItem) FilterValue() string { return i.asset.OriginalFileName }

type albumItem struct {
	album domain.Album
}

func (i albumItem) Title() string { return i.album.AlbumName }
func (i albumItem) Description() string {
	desc := fmt.Sprintf("%d assets", i.album.AssetCount)
	if i.album.Shared {
		desc += " · shared"
	}
	return desc
}
func (i albumItem) FilterValue() string { return i.album.AlbumName }

type folderItem struct {
	folder *domain.Folder
}

func (i folderItem) Title() string { return i.folder.Name }
func (i folderItem) Description() string {
	if n := len(i.folder.Children); n > 0 {
		return fmt.Sprintf("%d subfolders", n)
	}
	return i.folder.Path()
}
func (i folderItem) FilterValue() string { return i.folder.Name }

type personItem struct {
	person domain.Person
}

func (i personItem) Title() string       { return i.person.Name }
func (i personItem) Description() string { return "person" }
func (i personItem) FilterValue() string { return i.person.Name }

type bucketItem struct {
	bucket domain.Bucket
}

func (i bucketItem) Title() string       { return i.bucket.TimeBucket }
func (i bucketItem) Description() string { return fmt.Sprintf("%d assets", i.bucket.Count) }
func (i bucketItem) FilterValue() string { return i.bucket.TimeBucket }

// messages
type assetsLoadedMsg struct {
	title  string
	assets []domain.Asset
}

type albumsLoadedMsg struct{ albums []domain.Album }
type peopleLoadedMsg struct{ people []domain.Person }
type foldersLoadedMsg struct{ root *domain.Folder }
type bucketsLoadedMsg struct{ buckets []domain.Bucket }
type assetDetailMsg struct{ asset domain.Asset }
type busEventMsg struct{ event hub.Message }
type errMsg struct{ err error }

// Model is the terminal browser over the gallery services
type Model struct {
	assets    *service.AssetService
	albums    *service.AlbumService
	folders   *service.FolderService
	timeline  *service.TimelineService
	favorites *service.FavoriteService
	urls      URLBuilder

	view     view
	list     list.Model
	spinner  spinner.Model
	sub      hub.Subscription
	pageSize int
	logout   func()

	loading bool
	errText string

	// navigation state
	curAssets []domain.Asset
	curFolder *domain.Folder
	buckets   []domain.Bucket
	curBucket string
	detail    string
	prevView  view
	width     int
	height    int
}

// NewModel wires the services into the browser
func NewModel(assets *service.AssetService, albums *service.AlbumService, folders *service.FolderService, timeline *service.TimelineService, favorites *service.FavoriteService, urls URLBuilder, pageSize int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	l := list.New(menuItems(), list.NewDefaultDelegate(), 0, 0)
	l.Title = "immich-tv"
	l.Styles.Title = titleStyle
	l.SetShowHelp(false)
	l.Filter = fuzzyFilter

	if pageSize <= 0 {
		pageSize = 100
	}

	return Model{
		assets:    assets,
		albums:    albums,
		folders:   folders,
		timeline:  timeline,
		favorites: favorites,
		urls:      urls,
		view:      viewMenu,
		list:      l,
		spinner:   sp,
		sub:       favorites.Subscribe(16),
		pageSize:  pageSize,
	}
}

// fuzzyFilter ranks list entries with the same matcher the search helpers use
func fuzzyFilter(term string, targets []string) []list.Rank {
	matches := service.FilterNames(term, targets)
	ranks := make([]list.Rank, len(matches))
	for i, m := range matches {
		ranks[i] = list.Rank{Index: m.Index}
	}
	return ranks
}

// WithLogout installs the session teardown hook run when the user logs out
func (m Model) WithLogout(fn func()) Model {
	m.logout = fn
	return m
}

func menuItems() []list.Item {
	return []list.Item{
		menuItem{"Recent", "photos from the last months, shuffled"},
		menuItem{"On this day", "today's date across the years"},
		menuItem{"Similar period", "around this time of year"},
		menuItem{"Favorites", "assets marked as favorite"},
		menuItem{"Albums", "owned and shared albums"},
		menuItem{"People", "recognized faces with names"},
		menuItem{"Folders", "browse by directory"},
		menuItem{"Timeline", "month buckets, newest first"},
		menuItem{"Oldest photo", "the very first asset in the library"},
	}
}

// Init starts the spinner and the mutation-event listener
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenBus())
}

// listenBus waits for one mutation notification from the event bus
func (m Model) listenBus() tea.Cmd {
	receiver := m.sub.Receiver
	return func() tea.Msg {
		event, ok := <-receiver
		if !ok {
			return nil
		}
		return busEventMsg{event}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-2)
		return m, nil

	case tea.KeyMsg:
		// don't intercept keys while the list filter is active
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "L":
			if m.logout != nil {
				m.logout()
			}
			return m, tea.Quit
		case "esc":
			return m.goBack()
		case "enter":
			return m.selectItem()
		case "f":
			return m.toggleFavorite()
		case "x":
			return m.trashSelected()
		case "n", "p":
			return m.stepBucket(msg.String())
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case assetsLoadedMsg:
		m.loading = false
		m.errText = ""
		m.view = viewAssets
		m.curAssets = m.favorites.Cache().ApplyAll(msg.assets)
		m.list.Title = msg.title
		return m, m.setAssetItems()

	case albumsLoadedMsg:
		m.loading = false
		m.errText = ""
		m.view = viewAlbums
		m.list.Title = "Albums"
		items := make([]list.Item, len(msg.albums))
		for i, a := range msg.albums {
			items[i] = albumItem{a}
		}
		return m, m.list.SetItems(items)

	case peopleLoadedMsg:
		m.loading = false
		m.errText = ""
		m.view = viewPeople
		m.list.Title = "People"
		items := make([]list.Item, len(msg.people))
		for i, p := range msg.people {
			items[i] = personItem{p}
		}
		return m, m.list.SetItems(items)

	case assetDetailMsg:
		m.loading = false
		m.errText = ""
		if m.view != viewDetail {
			m.prevView = m.view
		}
		m.view = viewDetail
		m.detail = m.renderDetail(m.favorites.Cache().Apply(msg.asset))
		return m, nil

	case foldersLoadedMsg:
		m.loading = false
		m.errText = ""
		m.view = viewFolders
		m.curFolder = msg.root
		return m, m.setFolderItems()

	case bucketsLoadedMsg:
		m.loading = false
		m.errText = ""
		m.view = viewTimeline
		m.buckets = msg.buckets
		m.list.Title = "Timeline"
		items := make([]list.Item, len(msg.buckets))
		for i, b := range msg.buckets {
			items[i] = bucketItem{b}
		}
		return m, m.list.SetItems(items)

	case busEventMsg:
		cmd := m.applyBusEvent(msg.event)
		return m, tea.Batch(cmd, m.listenBus())

	case errMsg:
		m.loading = false
		m.errText = msg.err.Error()
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// applyBusEvent reconciles the visible asset list with a mutation made on
// any screen. The override cache is already up to date; this only refreshes
// what is rendered.
func (m *Model) applyBusEvent(event hub.Message) tea.Cmd {
	assetID, _ := event.Fields["assetID"].(string)
	if assetID == "" {
		return nil
	}

	switch event.Name {
	case service.TopicFavoriteChanged:
		fav, _ := event.Fields["isFavorite"].(bool)
		for i, a := range m.curAssets {
			if a.ID == assetID {
				m.curAssets[i] = a.WithFavorite(fav)
			}
		}
	case service.TopicAssetTrashed:
		kept := m.curAssets[:0]
		for _, a := range m.curAssets {
			if a.ID != assetID {
				kept = append(kept, a)
			}
		}
		m.curAssets = kept
	}

	if m.view == viewAssets {
		return m.setAssetItems()
	}
	return nil
}

func (m *Model) setAssetItems() tea.Cmd {
	items := make([]list.Item, len(m.curAssets))
	for i, a := range m.curAssets {
		items[i] = assetItem{a}
	}
	return m.list.SetItems(items)
}

func (m *Model) setFolderItems() tea.Cmd {
	m.list.Title = "Folders"
	if m.curFolder != nil && !m.curFolder.IsRoot() {
		m.list.Title = "Folders · " + m.curFolder.Path()
	}
	var items []list.Item
	if m.curFolder != nil {
		for _, c := range m.curFolder.Children {
			items = append(items, folderItem{c})
		}
	}
	return m.list.SetItems(items)
}

func (m Model) goBack() (tea.Model, tea.Cmd) {
	switch m.view {
	case viewDetail:
		m.view = m.prevView
		m.detail = ""
		return m, nil
	case viewFolders:
		if m.curFolder != nil && !m.curFolder.IsRoot() {
			m.curFolder = m.curFolder.Parent
			return m, m.setFolderItems()
		}
	}
	if m.view != viewMenu {
		m.view = viewMenu
		m.curAssets = nil
		m.curBucket = ""
		m.list.Title = "immich-tv"
		return m, m.list.SetItems(menuItems())
	}
	return m, nil
}

func (m Model) selectItem() (tea.Model, tea.Cmd) {
	switch item := m.list.SelectedItem().(type) {
	case menuItem:
		m.loading = true
		switch item.name {
		case "Recent":
			return m, m.loadAssets("Recent", func(ctx context.Context) ([]domain.Asset, error) {
				return m.assets.Recent(ctx, 1, m.pageSize, domain.ContentTypeAll)
			})
		case "On this day":
			return m, m.loadAssets("On this day", func(ctx context.Context) ([]domain.Asset, error) {
				return m.assets.OnThisDay(ctx, 1, m.pageSize, domain.ContentTypeAll, 0)
			})
		case "Similar period":
			return m, m.loadAssets("Similar period", func(ctx context.Context) ([]domain.Asset, error) {
				return m.assets.SimilarPeriod(ctx, 1, m.pageSize, domain.ContentTypeAll)
			})
		case "Favorites":
			return m, m.loadAssets("Favorites", func(ctx context.Context) ([]domain.Asset, error) {
				return m.assets.Favorites(ctx, 1, m.pageSize, domain.ContentTypeAll)
			})
		case "Albums":
			return m, m.loadAlbums()
		case "People":
			return m, m.loadPeople()
		case "Folders":
			return m, m.loadFolders()
		case "Timeline":
			return m, m.loadBuckets()
		case "Oldest photo":
			return m, func() tea.Msg {
				asset, err := m.assets.Oldest(context.Background())
				if err != nil {
					return errMsg{err}
				}
				return assetDetailMsg{asset}
			}
		}

	case assetItem:
		m.loading = true
		assetID := item.asset.ID
		return m, func() tea.Msg {
			asset, err := m.assets.Get(context.Background(), assetID)
			if err != nil {
				return errMsg{err}
			}
			return assetDetailMsg{asset}
		}

	case personItem:
		m.loading = true
		person := item.person
		return m, m.loadAssets(person.Name, func(ctx context.Context) ([]domain.Asset, error) {
			return m.assets.ByPerson(ctx, person.ID, 1, m.pageSize, domain.ContentTypeAll)
		})

	case albumItem:
		m.loading = true
		albumID := item.album.ID
		title := item.album.AlbumName
		return m, m.loadAssets(title, func(ctx context.Context) ([]domain.Asset, error) {
			album, err := m.albums.AlbumAssets(ctx, albumID)
			if err != nil {
				return nil, err
			}
			return album.Assets, nil
		})

	case folderItem:
		if len(item.folder.Children) > 0 {
			m.curFolder = item.folder
			return m, m.setFolderItems()
		}
		m.loading = true
		folder := item.folder
		return m, m.loadAssets(folder.Path(), func(ctx context.Context) ([]domain.Asset, error) {
			return m.folders.Assets(ctx, folder)
		})

	case bucketItem:
		m.loading = true
		m.curBucket = item.bucket.TimeBucket
		return m, m.loadBucketAssets(item.bucket.TimeBucket)
	}
	return m, nil
}

// stepBucket moves to the adjacent bucket while viewing bucket assets
func (m Model) stepBucket(key string) (tea.Model, tea.Cmd) {
	if m.view != viewAssets || m.curBucket == "" {
		return m, nil
	}
	step := 1
	if key == "p" {
		step = -1
	}
	next, ok := m.timeline.Adjacent(m.buckets, m.curBucket, step)
	if !ok {
		return m, nil
	}
	m.loading = true
	m.curBucket = next.TimeBucket
	return m, m.loadBucketAssets(next.TimeBucket)
}

func (m Model) toggleFavorite() (tea.Model, tea.Cmd) {
	item, ok := m.list.SelectedItem().(assetItem)
	if !ok {
		return m, nil
	}
	asset := item.asset
	return m, func() tea.Msg {
		if _, err := m.favorites.Toggle(context.Background(), asset.ID, !asset.IsFavorite); err != nil {
			return errMsg{err}
		}
		// the bus event updates the visible list
		return nil
	}
}

func (m Model) trashSelected() (tea.Model, tea.Cmd) {
	item, ok := m.list.SelectedItem().(assetItem)
	if !ok {
		return m, nil
	}
	assetID := item.asset.ID
	return m, func() tea.Msg {
		if err := m.favorites.Trash(context.Background(), assetID); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (m Model) loadAssets(title string, fetch func(ctx context.Context) ([]domain.Asset, error)) tea.Cmd {
	return func() tea.Msg {
		assets, err := fetch(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return assetsLoadedMsg{title, assets}
	}
}

func (m Model) loadAlbums() tea.Cmd {
	return func() tea.Msg {
		albums, err := m.albums.Albums(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return albumsLoadedMsg{albums}
	}
}

func (m Model) loadPeople() tea.Cmd {
	return func() tea.Msg {
		people, err := m.albums.People(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return peopleLoadedMsg{people}
	}
}

func (m Model) loadFolders() tea.Cmd {
	return func() tea.Msg {
		root, err := m.folders.Tree(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return foldersLoadedMsg{root}
	}
}

func (m Model) loadBuckets() tea.Cmd {
	return func() tea.Msg {
		buckets, err := m.timeline.Buckets(context.Background(), "", domain.OrderNewestOldest)
		if err != nil {
			return errMsg{err}
		}
		return bucketsLoadedMsg{buckets}
	}
}

func (m Model) loadBucketAssets(timeBucket string) tea.Cmd {
	return func() tea.Msg {
		assets, err := m.timeline.BucketAssets(context.Background(), "", timeBucket, domain.OrderNewestOldest)
		if err != nil {
			return errMsg{err}
		}
		return assetsLoadedMsg{timeBucket, assets}
	}
}

// renderDetail formats one asset for the detail panel, including the URLs a
// viewer on the same network can open.
func (m Model) renderDetail(a domain.Asset) string {
	title := a.OriginalFileName
	if title == "" {
		title = a.ID
	}
	if a.IsFavorite {
		title += " " + favoriteStyle.Render("♥")
	}

	lines := []string{
		titleStyle.Render(title),
		"",
		"captured   " + a.CapturedAt().Format("2006-01-02 15:04"),
	}
	if a.AlbumName != "" {
		lines = append(lines, "album      "+a.AlbumName)
	}
	if a.IsVideo() {
		lines = append(lines, "duration   "+a.Duration)
	}
	if a.ExifInfo != nil {
		if a.ExifInfo.Description != "" {
			lines = append(lines, "note       "+a.ExifInfo.Description)
		}
		if place := strings.Trim(a.ExifInfo.City+", "+a.ExifInfo.Country, ", "); place != "" {
			lines = append(lines, "place      "+place)
		}
	}
	if len(a.Tags) > 0 {
		names := make([]string, len(a.Tags))
		for i, t := range a.Tags {
			names[i] = t.Name
		}
		lines = append(lines, "tags       "+strings.Join(names, ", "))
	}
	if m.urls != nil {
		lines = append(lines,
			"",
			statusStyle.Render("file       "+m.urls.SignURL(m.urls.FileURL(a))),
			statusStyle.Render("thumbnail  "+m.urls.SignURL(m.urls.ThumbnailURL(a.ID, "preview"))),
		)
	}
	return strings.Join(lines, "\n")
}

func (m Model) View() string {
	status := ""
	switch {
	case m.loading:
		status = statusStyle.Render(m.spinner.View() + " loading…")
	case m.errText != "":
		status = errorStyle.Render(m.errText)
	default:
		status = helpStyle.Render("enter select · esc back · f favorite · x trash · n/p bucket · L logout · q quit")
	}
	if m.view == viewDetail {
		return docStyle.Render(m.detail + "\n\n" + status)
	}
	return docStyle.Render(m.list.View() + "\n" + status)
}
