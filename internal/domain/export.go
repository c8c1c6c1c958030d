package domain

// Export — полностью собранная модель выгрузки, которую рендерит писатель.
type Export struct {
	Personal     *PersonalInfo
	Userpics     []Photo
	Contacts     *ContactsList
	Sessions     *SessionsList
	Dialogs      []Dialog
	LeftChannels []Dialog
}

// Dialog объединяет диалог с его сообщениями и пирами, на которые они ссылаются.
type Dialog struct {
	Info     DialogInfo
	Messages []Message
	Peers    Peers
}

// DialogsInfoOf строит описание списка диалогов.
func DialogsInfoOf(dialogs []Dialog) DialogsInfo {
	info := DialogsInfo{List: make([]DialogInfo, 0, len(dialogs))}
	for _, d := range dialogs {
		info.List = append(info.List, d.Info)
	}
	return info
}
